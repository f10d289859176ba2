package framework

// Signal is a Source backed by a coalescing wake-up channel.
// Any number of Notify calls before the loop waits again result
// in a single Fire, so handlers must drain all pending work.
type Signal struct {
	name    string
	ch      chan struct{}
	handler Handler
}

// NewSignal creates a Signal invoking handler when fired.
func NewSignal(name string, handler Handler) *Signal {
	return &Signal{
		name:    name,
		ch:      make(chan struct{}, 1),
		handler: handler,
	}
}

// Name implements Source.
func (s *Signal) Name() string {
	return s.name
}

// Ready implements Source.
func (s *Signal) Ready() <-chan struct{} {
	return s.ch
}

// Fire implements Source.
func (s *Signal) Fire() error {
	if s.handler == nil {
		return nil
	}
	return s.handler.Handle()
}

// Notify signals the source. It never blocks and is safe to call
// from any goroutine.
func (s *Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Reset clears a pending notification.
func (s *Signal) Reset() {
	select {
	case <-s.ch:
	default:
	}
}
