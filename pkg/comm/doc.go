// Package comm provides the serial transport to the controller firmware.
package comm

// The transport is driven by an event loop owned by the caller.
// Blocking port reads and writes run in background goroutines which
// only post their results and signal the matching Source. All transport
// state (the write queue and the read accumulator) is touched only from
// Source handlers, so the transport needs no locking as long as a single
// loop drives it.
//
// Outbound data is queued and written one item at a time: the next item
// is not handed to the port until the previous write completed in full.
// Inbound bytes are accumulated in a fixed-size buffer and split into
// lines on CR/LF. A buffer filled without any terminator is dumped as
// garbage.
