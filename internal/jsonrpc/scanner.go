package jsonrpc

import "bytes"

// LineBuffer accumulates raw bytes from a subprocess stream and extracts
// protocol lines. Emission is chunk-size independent: feeding the same
// stream one byte at a time or all at once yields the same lines.
//
// Not safe for concurrent use; each connection owns one buffer.
type LineBuffer struct {
	buf []byte
}

// Append adds incoming bytes and returns the complete protocol lines they
// unlocked. Bytes after the last newline stay buffered; an incomplete line
// is never emitted. Lines that do not look like JSON are dropped silently;
// they are expected operational noise from the spawned server.
func (b *LineBuffer) Append(p []byte) [][]byte {
	b.buf = append(b.buf, p...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(b.buf, '\n')
		if idx < 0 {
			return lines
		}
		candidate := b.buf[:idx]
		// Drop the line and its newline from the buffer. Copy the
		// candidate out so later Appends cannot alias it.
		line := append([]byte(nil), candidate...)
		b.buf = b.buf[idx+1:]

		if LooksLikeJSON(line) {
			lines = append(lines, line)
		}
	}
}

// Pending returns the number of buffered bytes awaiting a newline.
// Partial bytes left at process exit are discarded, never guessed at.
func (b *LineBuffer) Pending() int { return len(b.buf) }

// Reset drops any buffered partial line.
func (b *LineBuffer) Reset() { b.buf = nil }

// LooksLikeJSON reports whether a candidate line is protocol data: after
// skipping leading space, tab, and carriage-return bytes, its first byte
// must be '{' or '['. A UTF-8 byte-order mark is not whitespace here, so a
// BOM-prefixed JSON line is intentionally filtered out.
func LooksLikeJSON(line []byte) bool {
	i := 0
	for i < len(line) {
		switch line[i] {
		case ' ', '\t', '\r':
			i++
		default:
			return line[i] == '{' || line[i] == '['
		}
	}
	return false
}
