// Package config collects the settings of send-gcode from defaults,
// environment, an optional config file and command line flags.
package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/send-gcode/pkg/comm"
)

// DefaultPort is the serial device used when none is configured.
const DefaultPort = "/dev/ttyUSB0"

// Environment variables overriding defaults.
const (
	EnvPort    = "SEND_GCODE_PORT"
	EnvBPS     = "SEND_GCODE_BPS"
	EnvMQTTURL = "SEND_GCODE_MQTT_URL"
)

var (
	// ErrNoFile indicates no G-code file is specified.
	ErrNoFile = errors.New("no G-code file specified")
	// ErrUnsupportedFormat indicates the config file extension is unknown.
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// Config provides all options of send-gcode.
type Config struct {
	// Port is the serial device, e.g. /dev/ttyUSB0 or COM4.
	Port string `toml:"port" yaml:"port"`
	// BaudRate is the serial speed.
	BaudRate int `toml:"bps" yaml:"bps"`
	// File is the G-code file to send.
	File string `toml:"file" yaml:"file"`
	// Verbose traces every frame sent and line received.
	Verbose bool `toml:"verbose" yaml:"verbose"`
	// RetryOnResend re-sends right away on "Resend" instead of
	// waiting for the next "ok".
	RetryOnResend bool `toml:"retry_on_resend" yaml:"retry_on_resend"`
	// ReadBufferSize limits the length of a received line.
	ReadBufferSize int `toml:"read_buffer_size" yaml:"read_buffer_size"`
	// MetricsAddr enables the metrics endpoint when not empty, e.g. :9090.
	MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	// MQTTBrokerURL enables progress reporting when not empty.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `toml:"mqtt_url" yaml:"mqtt_url"`
	// ReporterID identifies this machine in progress topics.
	ReporterID string `toml:"id" yaml:"id"`

	// Path is the config file, only from command line.
	Path string `toml:"-" yaml:"-"`
}

var defaultConfig = Config{
	Port:           DefaultPort,
	BaudRate:       comm.DefaultBaudRate,
	ReadBufferSize: comm.DefaultReadBufferSize,
}

func init() {
	applyEnv(&defaultConfig, os.Getenv)
}

func applyEnv(c *Config, getenv func(string) string) {
	if val := getenv(EnvPort); val != "" {
		c.Port = val
	}
	if val := getenv(EnvBPS); val != "" {
		if bps, err := strconv.Atoi(val); err == nil {
			c.BaudRate = bps
		}
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTBrokerURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	BindFlags(flag.CommandLine, &defaultConfig)
}

// BindFlags binds flags in fs to fields of c.
func BindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Port, "port", c.Port, "Serial port")
	fs.IntVar(&c.BaudRate, "bps", c.BaudRate, "Baud rate")
	fs.StringVar(&c.File, "file", c.File, "G-code file to send")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Trace frames sent and lines received")
	fs.BoolVar(&c.RetryOnResend, "retry-on-resend", c.RetryOnResend, "Re-send immediately on Resend")
	fs.IntVar(&c.ReadBufferSize, "read-buffer", c.ReadBufferSize, "Max length of a received line")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Serve metrics on this address")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL for progress reports")
	fs.StringVar(&c.ReporterID, "id", c.ReporterID, "ID in progress topics, default is derived from machine ID")
	fs.StringVar(&c.Path, "config", c.Path, "Config file (.toml, .yaml, .yml)")
}

// flagFields copies the field bound to a flag.
var flagFields = map[string]func(dst, src *Config){
	"port":            func(dst, src *Config) { dst.Port = src.Port },
	"bps":             func(dst, src *Config) { dst.BaudRate = src.BaudRate },
	"file":            func(dst, src *Config) { dst.File = src.File },
	"verbose":         func(dst, src *Config) { dst.Verbose = src.Verbose },
	"retry-on-resend": func(dst, src *Config) { dst.RetryOnResend = src.RetryOnResend },
	"read-buffer":     func(dst, src *Config) { dst.ReadBufferSize = src.ReadBufferSize },
	"metrics":         func(dst, src *Config) { dst.MetricsAddr = src.MetricsAddr },
	"mqtt":            func(dst, src *Config) { dst.MQTTBrokerURL = src.MQTTBrokerURL },
	"id":              func(dst, src *Config) { dst.ReporterID = src.ReporterID },
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Resolve loads the config file named by c.Path, if any, and keeps the
// values of flags explicitly set in fs on top of it.
func (c *Config) Resolve(fs *flag.FlagSet) (*Config, error) {
	conf := *c
	if c.Path != "" {
		if err := conf.LoadFile(c.Path); err != nil {
			return nil, err
		}
		fs.Visit(func(f *flag.Flag) {
			if set := flagFields[f.Name]; set != nil {
				set(&conf, c)
			}
		})
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// LoadFile merges settings from a file into c.
// Keys absent from the file leave the current values.
func (c *Config) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return c.loadTOML(path)
	case ".yaml", ".yml":
		return c.loadYAML(path)
	}
	return errors.Wrapf(ErrUnsupportedFormat, "load config %s", path)
}

func (c *Config) loadTOML(path string) error {
	conf := *c
	meta, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return errors.Wrapf(err, "load config %s", path)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return errors.Errorf("load config %s: unknown key %q", path, keys[0].String())
	}
	*c = conf
	return nil
}

func (c *Config) loadYAML(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "load config %s", path)
	}
	defer f.Close()
	conf := *c
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err = dec.Decode(&conf); err != nil && err != io.EOF {
		return errors.Wrapf(err, "load config %s", path)
	}
	*c = conf
	return nil
}

// Validate checks the config.
func (c *Config) Validate() error {
	if c.File == "" {
		return ErrNoFile
	}
	if c.Port == "" {
		return comm.ErrNoPort
	}
	if c.BaudRate <= 0 {
		return errors.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if c.ReadBufferSize < 0 {
		return errors.Errorf("invalid read buffer size %d", c.ReadBufferSize)
	}
	return nil
}

// CommConfig returns the config for opening the connection.
func (c *Config) CommConfig() comm.Config {
	return comm.Config{
		Port:           c.Port,
		BaudRate:       c.BaudRate,
		ReadBufferSize: c.ReadBufferSize,
	}
}
