package comm

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// Port is an opened byte-oriented link to the controller.
// Read blocks until data is available; Close unblocks pending calls.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a Port with the given config.
type Opener func(Config) (Port, error)

// Config configures the connection.
type Config struct {
	// Port is the device, e.g. /dev/ttyUSB0 or COM4.
	Port string
	// BaudRate is the speed in bps.
	BaudRate int
	// ReadBufferSize limits the length of a received line.
	ReadBufferSize int
	// StatusInterval is how often line status is polled on ports
	// implementing StatusReporter.
	StatusInterval time.Duration
}

// DefaultBaudRate is used when BaudRate is not set.
const DefaultBaudRate = 19200

func (c Config) baudRate() int {
	if c.BaudRate > 0 {
		return c.BaudRate
	}
	return DefaultBaudRate
}

// DefaultStatusInterval is used when StatusInterval is not set.
const DefaultStatusInterval = 250 * time.Millisecond

func (c Config) statusInterval() time.Duration {
	if c.StatusInterval > 0 {
		return c.StatusInterval
	}
	return DefaultStatusInterval
}

func (c Config) readBufferSize() int {
	if c.ReadBufferSize > 0 {
		return c.ReadBufferSize
	}
	return DefaultReadBufferSize
}

// OpenSerial opens a serial port as 8N1 with no flow control and
// DTR/RTS deasserted, and purges both hardware buffers.
func OpenSerial(conf Config) (Port, error) {
	if conf.Port == "" {
		return nil, ErrNoPort
	}
	mode := &serial.Mode{
		BaudRate: conf.baudRate(),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: false,
			DTR: false,
		},
	}
	p, err := serial.Open(conf.Port, mode)
	if err != nil {
		return nil, err
	}
	if err = p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "purge input")
	}
	if err = p.ResetOutputBuffer(); err != nil {
		p.Close()
		return nil, errors.Wrap(err, "purge output")
	}
	return &serialPort{Port: p}, nil
}

// serialPort adapts serial.Port and reports modem line drops.
type serialPort struct {
	serial.Port
	lastBits *serial.ModemStatusBits
}

// LineStatus implements StatusReporter.
func (p *serialPort) LineStatus() (LineStatus, error) {
	bits, err := p.GetModemStatusBits()
	if err != nil {
		return 0, errors.Wrap(err, "modem status")
	}
	var st LineStatus
	if prev := p.lastBits; prev != nil {
		if (prev.DSR && !bits.DSR) || (prev.DCD && !bits.DCD) {
			st |= StatusCarrierLost
		}
	}
	p.lastBits = bits
	return st, nil
}

// ListPorts enumerates serial ports on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
