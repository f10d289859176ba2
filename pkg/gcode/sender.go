package gcode

import (
	"bytes"

	"github.com/golang/glog"

	"github.com/robotalks/send-gcode/pkg/comm"
	fx "github.com/robotalks/send-gcode/pkg/framework"
)

const (
	// ResetLineSkip is added to the line number when the controller
	// restarts, so numbers it may still be processing are not reused.
	ResetLineSkip = 20

	// DefaultRetryOnResend keeps "Resend" a rewind only: the retry is
	// driven by the "ok" the firmware sends after it. Firmware which
	// doesn't follow "Resend" with "ok" needs RetryOnResend.
	DefaultRetryOnResend = false
)

var (
	replyStart  = []byte("start")
	replyResend = []byte("Resend")
	replyOK     = []byte("ok")
)

// Conn is the outbound side of a transport.
type Conn interface {
	Send([]byte)
}

// ConnFunc is func form of Conn.
type ConnFunc func([]byte)

// Send implements Conn.
func (f ConnFunc) Send(b []byte) {
	f(b)
}

// Sender streams commands from a source buffer as numbered,
// checksummed frames, one frame per acknowledgment.
type Sender struct {
	// RetryOnResend sends the rewound line right away on "Resend".
	RetryOnResend bool
	// Verbose logs all frames sent and lines received.
	Verbose  bool
	Observer Observer

	conn      Conn
	transport *comm.Transport

	src       []byte
	pos       int
	lastSent  int
	line      uint32
	needReset bool
	done      bool
	frames    int
}

// Options are used by Open.
type Options struct {
	Verbose       bool
	RetryOnResend bool
	Observer      Observer
	StatusHandler comm.StatusHandler
	// Opener replaces comm.OpenSerial, mostly for testing.
	Opener comm.Opener
}

// NewSender creates a Sender writing to conn.
// src is not copied and must not be modified while sending.
func NewSender(conn Conn, src []byte) *Sender {
	return &Sender{
		RetryOnResend: DefaultRetryOnResend,
		conn:          conn,
		src:           src,
		needReset:     true,
	}
}

// Open opens the port and starts sending src with the reset frame.
func Open(conf comm.Config, src []byte, opts Options) (*Sender, error) {
	t := comm.NewTransport()
	t.Opener = opts.Opener
	t.StatusHandler = opts.StatusHandler
	s := NewSender(t, src)
	s.Verbose = opts.Verbose
	s.RetryOnResend = opts.RetryOnResend
	s.Observer = opts.Observer
	t.LineHandler = comm.HandleLineFunc(s.HandleLine)
	if err := t.Open(conf); err != nil {
		return nil, err
	}
	s.transport = t
	s.Start()
	return s, nil
}

// Start sends the reset frame.
func (s *Sender) Start() {
	s.send()
}

// Done indicates all commands are sent and acknowledged, and nothing
// more will be sent.
func (s *Sender) Done() bool {
	return s.done
}

// Events returns the transport sources for the event loop.
func (s *Sender) Events() []fx.Source {
	if s.transport == nil {
		return nil
	}
	return s.transport.Events()
}

// Close closes the transport opened by Open.
func (s *Sender) Close() error {
	if s.transport == nil {
		return nil
	}
	return s.transport.Close()
}

// Progress reports the current progress.
func (s *Sender) Progress() Progress {
	return Progress{
		Consumed: s.pos,
		Total:    len(s.src),
		Line:     s.line,
		Frames:   s.frames,
		Done:     s.done,
	}
}

// HandleLine implements comm.LineHandler.
func (s *Sender) HandleLine(line []byte) {
	if s.Verbose {
		glog.Infof("recv: %s", line)
	}
	switch {
	case bytes.Equal(line, replyStart):
		s.pos = s.lastSent
		s.needReset = true
		s.done = false
		s.line += ResetLineSkip
		s.notify(EventControllerReset, nil)
		s.send()
	case bytes.HasPrefix(line, replyResend):
		s.pos = s.lastSent
		s.done = false
		if s.line > 0 {
			s.line--
		}
		s.notify(EventResend, nil)
		if s.RetryOnResend {
			s.send()
		}
	case bytes.HasPrefix(line, replyOK):
		s.send()
	}
}

func (s *Sender) send() {
	if s.needReset {
		s.line++
		s.write(AppendFrame(nil, s.line, []byte(ResetCommand)))
		s.needReset = false
		s.notify(EventReset, nil)
		return
	}

	cmd, start, next := NextCommand(s.src, s.pos)
	s.pos = next
	if len(cmd) == 0 {
		if !s.done {
			s.done = true
			s.notify(EventDone, nil)
		}
		return
	}
	s.lastSent = start
	s.line++
	s.frames++
	s.write(AppendFrame(nil, s.line, cmd))
	s.notify(EventFrame, cmd)
}

func (s *Sender) write(frame []byte) {
	if s.Verbose {
		glog.Infof("send: %s", bytes.TrimRight(frame, "\n"))
	}
	s.conn.Send(frame)
}

func (s *Sender) notify(kind EventKind, payload []byte) {
	if o := s.Observer; o != nil {
		o.Observe(Event{Kind: kind, Line: s.line, Payload: payload, Progress: s.Progress()})
	}
}
