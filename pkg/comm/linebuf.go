package comm

// DefaultReadBufferSize is the maximum size of a received line.
const DefaultReadBufferSize = 1024

// LineBuffer accumulates received bytes in a fixed-size buffer and
// splits them into lines terminated by CR or LF.
type LineBuffer struct {
	buf []byte
	n   int
}

// NewLineBuffer creates a LineBuffer holding at most size bytes.
func NewLineBuffer(size int) *LineBuffer {
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	return &LineBuffer{buf: make([]byte, size)}
}

// Len returns the number of bytes pending.
func (b *LineBuffer) Len() int {
	return b.n
}

// Cap returns the capacity.
func (b *LineBuffer) Cap() int {
	return len(b.buf)
}

// Reset drops pending bytes.
func (b *LineBuffer) Reset() {
	b.n = 0
}

// Fill copies as much of p as fits and returns the number of bytes copied.
func (b *LineBuffer) Fill(p []byte) int {
	n := copy(b.buf[b.n:], p)
	b.n += n
	return n
}

// Lines calls fn for every complete non-empty line and compacts
// the remaining bytes to the front. If the buffer is full and contains
// no terminator, it is dumped and overflow is reported.
func (b *LineBuffer) Lines(fn func([]byte)) (overflow bool) {
	for {
		p := 0
		for p < b.n && !isTerminator(b.buf[p]) {
			p++
		}
		if p == b.n {
			if b.n == len(b.buf) {
				b.n = 0
				return true
			}
			return false
		}
		if p > 0 {
			fn(b.buf[:p])
			if p > b.n {
				// reset by fn
				return false
			}
		}
		for p < b.n && isTerminator(b.buf[p]) {
			p++
		}
		b.n = copy(b.buf, b.buf[p:b.n])
	}
}

func isTerminator(c byte) bool {
	return c == '\r' || c == '\n'
}
