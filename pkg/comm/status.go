package comm

import "strings"

// LineStatus is a set of advisory line conditions.
type LineStatus uint

// Line conditions.
const (
	StatusBreak LineStatus = 1 << iota
	StatusFrame
	StatusOverrun
	StatusRxOverflow
	StatusParity
	// StatusGarbage is reported when the read buffer filled up
	// without a line terminator and has been dumped.
	StatusGarbage
	// StatusCarrierLost is reported when DSR or DCD drops.
	StatusCarrierLost
)

var statusMessages = []struct {
	status LineStatus
	msg    string
}{
	{StatusBreak, "received break"},
	{StatusFrame, "frame error"},
	{StatusOverrun, "overrun"},
	{StatusRxOverflow, "input buffer overflow"},
	{StatusParity, "parity error"},
	{StatusGarbage, "buffer overfilled with garbage; dumping"},
	{StatusCarrierLost, "carrier lost"},
}

// Has checks if all conditions in s are set.
func (st LineStatus) Has(s LineStatus) bool {
	return st&s == s
}

// Each calls fn for every single condition set, in bit order.
func (st LineStatus) Each(fn func(LineStatus)) {
	for _, m := range statusMessages {
		if st&m.status != 0 {
			fn(m.status)
		}
	}
}

// String implements fmt.Stringer.
func (st LineStatus) String() string {
	var msgs []string
	for _, m := range statusMessages {
		if st&m.status != 0 {
			msgs = append(msgs, m.msg)
		}
	}
	return strings.Join(msgs, ", ")
}

// StatusReporter is implemented by ports able to report line conditions.
// LineStatus returns conditions seen since the last call.
type StatusReporter interface {
	LineStatus() (LineStatus, error)
}

// StatusHandler receives advisory line conditions.
type StatusHandler interface {
	HandleStatus(LineStatus)
}

// HandleStatusFunc is func type of StatusHandler.
type HandleStatusFunc func(LineStatus)

// HandleStatus implements StatusHandler.
func (f HandleStatusFunc) HandleStatus(st LineStatus) {
	f(st)
}

// LineHandler is called for every non-empty received line.
// The slice is only valid during the call.
type LineHandler interface {
	HandleLine([]byte)
}

// HandleLineFunc is func type of LineHandler.
type HandleLineFunc func([]byte)

// HandleLine implements LineHandler.
func (f HandleLineFunc) HandleLine(line []byte) {
	f(line)
}
