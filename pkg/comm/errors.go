package comm

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyOpen indicates Open is called on an opened transport.
	ErrAlreadyOpen = errors.New("connection is already open")
	// ErrShortWrite indicates the port accepted fewer bytes than requested.
	ErrShortWrite = errors.New("short write")
	// ErrNoPort indicates no port name is configured.
	ErrNoPort = errors.New("no port specified")
)

// ConnectionError indicates the port can not be opened or configured.
type ConnectionError struct {
	Port string
	Err  error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("can not open port %s: %v", e.Port, e.Err)
}

// Cause returns the underlying error.
func (e *ConnectionError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError indicates an I/O failure on an opened connection.
// The transport is closed when it is reported.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s error: %v", e.Op, e.Err)
}

// Cause returns the underlying error.
func (e *TransportError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }
