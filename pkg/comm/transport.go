package comm

import (
	"container/list"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/send-gcode/pkg/framework"
)

// Transport sends queued data and receives lines over a Port.
type Transport struct {
	LineHandler   LineHandler
	StatusHandler StatusHandler
	// Opener opens the port, OpenSerial if nil.
	Opener Opener

	session *session
	queue   list.List // of []byte, front is being written when writing
	writing bool
	lines   *LineBuffer

	commState *fx.Signal
	writeDone *fx.Signal
	events    []fx.Source
}

// session holds the per-connection port and the channels used by
// its I/O goroutines.
type session struct {
	port     Port
	rxCh     chan rxChunk
	writeReq chan []byte
	writeCh  chan writeResult
	closing  chan struct{}
}

type rxChunk struct {
	data []byte
	err  error
}

type writeResult struct {
	n   int
	err error
}

const rxQueueLen = 4

// NewTransport creates a closed Transport.
func NewTransport() *Transport {
	t := &Transport{}
	t.commState = fx.NewSignal("comm-state", fx.HandleFunc(t.onCommState))
	t.writeDone = fx.NewSignal("write", fx.HandleFunc(t.onWrite))
	t.events = []fx.Source{t.commState, t.writeDone}
	return t
}

// Events returns the sources to be waited on by the event loop:
// one for received data and line status, one for write completion.
func (t *Transport) Events() []fx.Source {
	return t.events
}

// IsOpen indicates the connection is open.
func (t *Transport) IsOpen() bool {
	return t.session != nil
}

// Open opens the port and starts receiving.
func (t *Transport) Open(conf Config) error {
	if t.session != nil {
		return &ConnectionError{Port: conf.Port, Err: ErrAlreadyOpen}
	}
	t.cleanup()

	opener := t.Opener
	if opener == nil {
		opener = OpenSerial
	}
	port, err := opener(conf)
	if err != nil {
		return &ConnectionError{Port: conf.Port, Err: err}
	}

	size := conf.readBufferSize()
	t.lines = NewLineBuffer(size)
	s := &session{
		port:     port,
		rxCh:     make(chan rxChunk, rxQueueLen),
		writeReq: make(chan []byte, 1),
		writeCh:  make(chan writeResult, 1),
		closing:  make(chan struct{}),
	}
	t.session = s
	go s.readLoop(size, t.commState.Notify)
	go s.writeLoop(t.writeDone.Notify)
	if _, ok := port.(StatusReporter); ok {
		go s.statusLoop(conf.statusInterval(), t.commState.Notify)
	}
	glog.V(2).Infof("opened %s at %d bps", conf.Port, conf.baudRate())
	return nil
}

// Close releases the port and discards pending writes and received data.
func (t *Transport) Close() error {
	s := t.session
	if s == nil {
		return nil
	}
	t.session = nil
	close(s.closing)
	err := s.port.Close()
	t.cleanup()
	glog.V(2).Info("closed")
	return err
}

// Send queues data for writing. It never blocks.
// Data is dropped if the transport is not open.
func (t *Transport) Send(data []byte) {
	if t.session == nil {
		return
	}
	t.queue.PushBack(data)
	t.startWrite()
}

// Pending returns the number of queued items including the one being written.
func (t *Transport) Pending() int {
	return t.queue.Len()
}

func (t *Transport) cleanup() {
	t.commState.Reset()
	t.writeDone.Reset()
	t.queue.Init()
	t.writing = false
	if t.lines != nil {
		t.lines.Reset()
	}
}

func (t *Transport) startWrite() {
	if t.writing || t.queue.Len() == 0 {
		return
	}
	t.writing = true
	// writeReq has room: only one item is in flight.
	t.session.writeReq <- t.queue.Front().Value.([]byte)
}

func (t *Transport) onWrite() error {
	s := t.session
	if s == nil || !t.writing {
		return nil
	}
	var res writeResult
	select {
	case res = <-s.writeCh:
	default:
		return nil
	}
	head := t.queue.Front().Value.([]byte)
	if res.err == nil && res.n != len(head) {
		res.err = ErrShortWrite
	}
	if res.err != nil {
		t.Close()
		return &TransportError{Op: "write", Err: res.err}
	}
	glog.V(2).Infof("wrote %d bytes", res.n)
	t.queue.Remove(t.queue.Front())
	t.writing = false
	t.startWrite()
	return nil
}

func (t *Transport) onCommState() error {
	s := t.session
	if s == nil {
		return nil
	}
	if reporter, ok := s.port.(StatusReporter); ok {
		st, err := reporter.LineStatus()
		if err != nil {
			t.Close()
			return &TransportError{Op: "status", Err: err}
		}
		t.reportStatus(st)
	}
	for t.session == s {
		var chunk rxChunk
		select {
		case chunk = <-s.rxCh:
		default:
			return nil
		}
		if len(chunk.data) > 0 {
			glog.V(2).Infof("read %d bytes", len(chunk.data))
			t.receive(s, chunk.data)
		}
		if chunk.err != nil && t.session == s {
			t.Close()
			return &TransportError{Op: "read", Err: chunk.err}
		}
	}
	return nil
}

func (t *Transport) receive(s *session, data []byte) {
	for len(data) > 0 && t.session == s {
		n := t.lines.Fill(data)
		data = data[n:]
		if t.lines.Lines(t.handleLine) {
			t.reportStatus(StatusGarbage)
		}
	}
}

func (t *Transport) handleLine(line []byte) {
	if h := t.LineHandler; h != nil {
		h.HandleLine(line)
	}
}

func (t *Transport) reportStatus(st LineStatus) {
	if st == 0 {
		return
	}
	if h := t.StatusHandler; h != nil {
		h.HandleStatus(st)
		return
	}
	glog.Warning(st.String())
}

func (s *session) readLoop(size int, notify func()) {
	buf := make([]byte, size)
	for {
		n, err := s.port.Read(buf)
		if n == 0 && err == nil {
			continue
		}
		chunk := rxChunk{err: err}
		if n > 0 {
			chunk.data = append([]byte(nil), buf[:n]...)
		}
		select {
		case s.rxCh <- chunk:
			notify()
		case <-s.closing:
			return
		}
		if err != nil {
			return
		}
	}
}

// statusLoop wakes up comm-state periodically so line conditions are
// reported while no data arrives.
func (s *session) statusLoop(interval time.Duration, notify func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case <-s.closing:
				return
			default:
				notify()
			}
		case <-s.closing:
			return
		}
	}
}

func (s *session) writeLoop(notify func()) {
	for {
		select {
		case data := <-s.writeReq:
			n, err := s.port.Write(data)
			select {
			case s.writeCh <- writeResult{n: n, err: err}:
				notify()
			case <-s.closing:
				return
			}
		case <-s.closing:
			return
		}
	}
}
