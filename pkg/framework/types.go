package framework

import "context"

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Source is a waitable event source paired with the handler to
// run when it is signaled.
type Source interface {
	Named
	// Ready returns the channel which receives a value when
	// the source is signaled. The same channel must be returned
	// on every call.
	Ready() <-chan struct{}
	// Fire processes the signaled source. A returned error is
	// fatal to the loop waiting on the source.
	Fire() error
}

// Handler is called when a Signal fires.
type Handler interface {
	Handle() error
}

// HandleFunc is the func form of Handler.
type HandleFunc func() error

// Handle implements Handler.
func (f HandleFunc) Handle() error {
	return f()
}
