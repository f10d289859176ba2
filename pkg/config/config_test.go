package config

import (
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/send-gcode/pkg/comm"
)

func writeFile(t *testing.T, name, content string) string {
	dir, err := ioutil.TempDir("", "send-gcode-config")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	fn := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(fn, []byte(content), 0644))
	return fn
}

func newFlags(c *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	BindFlags(fs, c)
	return fs
}

func TestDefaults(t *testing.T) {
	var c Config
	c.Port, c.BaudRate = DefaultPort, comm.DefaultBaudRate
	applyEnv(&c, func(string) string { return "" })
	assert.Equal(t, "/dev/ttyUSB0", c.Port)
	assert.Equal(t, 19200, c.BaudRate)
	assert.Empty(t, c.MQTTBrokerURL)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPort:    "COM4",
		EnvBPS:     "115200",
		EnvMQTTURL: "mqtt://broker/shop",
	}
	c := Config{BaudRate: 19200}
	applyEnv(&c, func(key string) string { return env[key] })
	assert.Equal(t, "COM4", c.Port)
	assert.Equal(t, 115200, c.BaudRate)
	assert.Equal(t, "mqtt://broker/shop", c.MQTTBrokerURL)

	env[EnvBPS] = "fast"
	applyEnv(&c, func(key string) string { return env[key] })
	assert.Equal(t, 115200, c.BaudRate)
}

func TestLoadTOML(t *testing.T) {
	fn := writeFile(t, "conf.toml", `
port = "/dev/ttyACM0"
bps = 250000
file = "part.gcode"
retry_on_resend = true
metrics_addr = ":9090"
`)
	c := NewConfig()
	c.ReadBufferSize = 512
	require.NoError(t, c.LoadFile(fn))
	assert.Equal(t, "/dev/ttyACM0", c.Port)
	assert.Equal(t, 250000, c.BaudRate)
	assert.Equal(t, "part.gcode", c.File)
	assert.True(t, c.RetryOnResend)
	assert.Equal(t, ":9090", c.MetricsAddr)
	assert.Equal(t, 512, c.ReadBufferSize)
}

func TestLoadTOMLUnknownKey(t *testing.T) {
	fn := writeFile(t, "conf.toml", "baud = 9600\n")
	c := NewConfig()
	before := *c
	assert.Error(t, c.LoadFile(fn))
	assert.Equal(t, before, *c)
}

func TestLoadYAML(t *testing.T) {
	fn := writeFile(t, "conf.yml", `
port: COM3
file: part.gcode
verbose: true
mqtt_url: mqtt://broker:1883/shop
read_buffer_size: 256
`)
	c := NewConfig()
	require.NoError(t, c.LoadFile(fn))
	assert.Equal(t, "COM3", c.Port)
	assert.Equal(t, "part.gcode", c.File)
	assert.True(t, c.Verbose)
	assert.Equal(t, "mqtt://broker:1883/shop", c.MQTTBrokerURL)
	assert.Equal(t, 256, c.ReadBufferSize)
	assert.Equal(t, defaultConfig.BaudRate, c.BaudRate)
}

func TestLoadEmptyYAML(t *testing.T) {
	fn := writeFile(t, "conf.yaml", "")
	c := NewConfig()
	before := *c
	require.NoError(t, c.LoadFile(fn))
	assert.Equal(t, before, *c)
}

func TestLoadYAMLUnknownKey(t *testing.T) {
	fn := writeFile(t, "conf.yaml", "speed: 9600\n")
	assert.Error(t, NewConfig().LoadFile(fn))
}

func TestLoadUnsupportedFormat(t *testing.T) {
	err := NewConfig().LoadFile("conf.json")
	assert.Equal(t, ErrUnsupportedFormat, errors.Cause(err))
}

func TestLoadMissingFile(t *testing.T) {
	assert.Error(t, NewConfig().LoadFile(filepath.Join(os.TempDir(), "no-such-send-gcode.toml")))
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	fn := writeFile(t, "conf.toml", `
port = "/dev/ttyACM0"
bps = 250000
file = "from-file.gcode"
`)
	c := Config{Port: DefaultPort, BaudRate: comm.DefaultBaudRate}
	fs := newFlags(&c)
	require.NoError(t, fs.Parse([]string{"-config", fn, "-bps", "115200"}))
	conf, err := c.Resolve(fs)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", conf.Port)
	assert.Equal(t, 115200, conf.BaudRate)
	assert.Equal(t, "from-file.gcode", conf.File)
}

func TestResolveWithoutFile(t *testing.T) {
	c := Config{Port: DefaultPort, BaudRate: comm.DefaultBaudRate}
	fs := newFlags(&c)
	require.NoError(t, fs.Parse([]string{"-file", "a.gcode", "-port", "COM4"}))
	conf, err := c.Resolve(fs)
	require.NoError(t, err)
	assert.Equal(t, "COM4", conf.Port)
	assert.Equal(t, "a.gcode", conf.File)
	assert.Equal(t, comm.Config{Port: "COM4", BaudRate: 19200}, conf.CommConfig())
}

func TestValidate(t *testing.T) {
	c := Config{Port: DefaultPort, BaudRate: 19200}
	assert.Equal(t, ErrNoFile, c.Validate())
	c.File = "a.gcode"
	assert.NoError(t, c.Validate())
	c.Port = ""
	assert.Equal(t, comm.ErrNoPort, c.Validate())
	c.Port = "COM4"
	c.BaudRate = 0
	assert.Error(t, c.Validate())
	c.BaudRate = 9600
	c.ReadBufferSize = -1
	assert.Error(t, c.Validate())
}
