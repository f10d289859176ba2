package framework

import (
	"context"
	"reflect"

	"github.com/golang/glog"
)

// EventLoop waits on a set of Sources and fires the signaled one.
// All handlers run on the goroutine calling Run, one at a time.
type EventLoop struct {
	Sources []Source
	// Done is checked before every wait. The loop stops once it
	// returns true. A nil Done runs until the context is canceled.
	Done func() bool
}

// NewEventLoop creates an EventLoop.
func NewEventLoop(done func() bool, sources ...Source) *EventLoop {
	return &EventLoop{Sources: sources, Done: done}
}

// Add appends more sources.
func (l *EventLoop) Add(sources ...Source) *EventLoop {
	l.Sources = append(l.Sources, sources...)
	return l
}

// Run implements Runnable.
func (l *EventLoop) Run(ctx context.Context) error {
	cases := make([]reflect.SelectCase, len(l.Sources)+1)
	cases[0] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}
	for n, src := range l.Sources {
		cases[n+1] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(src.Ready())}
	}
	for !l.done() {
		chosen, _, _ := reflect.Select(cases)
		if chosen == 0 {
			return ctx.Err()
		}
		src := l.Sources[chosen-1]
		glog.V(4).Infof("fire %s", src.Name())
		if err := src.Fire(); err != nil {
			return err
		}
	}
	return nil
}

func (l *EventLoop) done() bool {
	return l.Done != nil && l.Done()
}
