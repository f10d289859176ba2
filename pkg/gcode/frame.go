package gcode

import "strconv"

// ResetCommand sets the line number expected by the controller.
const ResetCommand = "M110"

// Checksum computes the XOR of all bytes.
func Checksum(p []byte) byte {
	var cs byte
	for _, c := range p {
		cs ^= c
	}
	return cs
}

// AppendFrame appends the frame "N<line> <payload>*<checksum>\n" to dst.
// The checksum covers everything before '*'.
func AppendFrame(dst []byte, line uint32, payload []byte) []byte {
	start := len(dst)
	dst = append(dst, 'N')
	dst = strconv.AppendUint(dst, uint64(line), 10)
	dst = append(dst, ' ')
	dst = append(dst, payload...)
	cs := Checksum(dst[start:])
	dst = append(dst, '*')
	dst = strconv.AppendUint(dst, uint64(cs), 10)
	return append(dst, '\n')
}

// NextCommand finds the next command at or after pos.
// Whitespace and blank lines are skipped; a command ends at a line end
// or at a comment marker ('(' or ';'). It returns the command, its start
// and the end of the physical line containing it. When no command is
// left, cmd is empty and start == next == len(src).
func NextCommand(src []byte, pos int) (cmd []byte, start, next int) {
	for pos < len(src) {
		for pos < len(src) && isSpace(src[pos]) {
			pos++
		}
		end := pos
		for end < len(src) && !isCommandEnd(src[end]) {
			end++
		}
		next = end
		for next < len(src) && !isLineEnd(src[next]) {
			next++
		}
		if end > pos {
			return src[pos:end], pos, next
		}
		pos = next
	}
	return nil, pos, pos
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isLineEnd(c byte) bool {
	return c == '\r' || c == '\n'
}

func isCommandEnd(c byte) bool {
	return isLineEnd(c) || c == '(' || c == ';'
}
