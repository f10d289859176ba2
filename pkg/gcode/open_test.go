package gcode

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/send-gcode/pkg/comm"
	fx "github.com/robotalks/send-gcode/pkg/framework"
)

// firmwarePort simulates a controller replying to every frame.
type firmwarePort struct {
	reply    func(n int, frame string) string
	writeErr error

	rx      chan []byte
	pending []byte
	closed  chan struct{}
	once    sync.Once

	lock    sync.Mutex
	written []string
}

func newFirmwarePort(reply func(n int, frame string) string) *firmwarePort {
	return &firmwarePort{
		reply:  reply,
		rx:     make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

func (p *firmwarePort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		select {
		case p.pending = <-p.rx:
		case <-p.closed:
			return 0, io.ErrClosedPipe
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *firmwarePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.lock.Lock()
	n := len(p.written)
	p.written = append(p.written, string(b))
	p.lock.Unlock()
	if reply := p.reply(n, string(b)); reply != "" {
		p.rx <- []byte(reply)
	}
	return len(b), nil
}

func (p *firmwarePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *firmwarePort) frames() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]string(nil), p.written...)
}

func runSender(t *testing.T, port *firmwarePort, src string) (*Sender, error) {
	s, err := Open(comm.Config{Port: "sim"}, []byte(src), Options{
		Opener: func(comm.Config) (comm.Port, error) { return port, nil },
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = fx.NewEventLoop(s.Done, s.Events()...).Run(ctx)
	s.Close()
	return s, err
}

func TestOpenStreamsToFirmware(t *testing.T) {
	port := newFirmwarePort(func(int, string) string { return "ok\r\n" })
	s, err := runSender(t, port, "G1 X1\nG1 X2\n")
	require.NoError(t, err)
	require.True(t, s.Done())
	require.Equal(t, []string{"N1 M110*34\n", "N2 G1 X1*99\n", "N3 G1 X2*97\n"}, port.frames())
}

func TestOpenRecoversFromRestart(t *testing.T) {
	port := newFirmwarePort(func(n int, frame string) string {
		switch n {
		case 2:
			return "echo: garbage\nstart\n"
		default:
			return "ok\n"
		}
	})
	_, err := runSender(t, port, "G1 X1\nG1 X2\n")
	require.NoError(t, err)
	require.Equal(t, []string{
		"N1 M110*34\n",
		"N2 G1 X1*99\n",
		"N3 G1 X2*97\n",
		"N24 M110*21\n",
		"N25 G1 X2*85\n",
	}, port.frames())
}

func TestOpenHandlesResend(t *testing.T) {
	port := newFirmwarePort(func(n int, frame string) string {
		if n == 1 {
			return "Error:checksum mismatch\nResend: 2\nok\n"
		}
		return "ok\n"
	})
	_, err := runSender(t, port, "G1 X1\nG1 X2\n")
	require.NoError(t, err)
	require.Equal(t, []string{
		"N1 M110*34\n",
		"N2 G1 X1*99\n",
		"N2 G1 X1*99\n",
		"N3 G1 X2*97\n",
	}, port.frames())
}

func TestOpenFailsOnWriteError(t *testing.T) {
	errIO := errors.New("device unplugged")
	port := newFirmwarePort(func(int, string) string { return "" })
	port.writeErr = errIO
	s, err := runSender(t, port, "G1 X1\n")
	var terr *comm.TransportError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, errIO, terr.Err)
	require.False(t, s.Done())
}

func TestOpenConnectionError(t *testing.T) {
	errNoDev := errors.New("no such device")
	_, err := Open(comm.Config{Port: "/dev/none"}, nil, Options{
		Opener: func(comm.Config) (comm.Port, error) { return nil, errNoDev },
	})
	var cerr *comm.ConnectionError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, errNoDev, cerr.Err)
}
