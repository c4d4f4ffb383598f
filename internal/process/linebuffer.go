package process

import (
	"bytes"
	"strings"
	"sync"
)

// LineBuffer is an io.Writer that accumulates output line by line.
// "\n", "\r\n" and a lone "\r" each end a line. Every complete line is
// stored followed by LineSeparator exactly once. A trailing line without a
// terminator is held until Flush.
// Thread-safe with sync.Mutex.
type LineBuffer struct {
	mu      sync.Mutex
	out     strings.Builder
	partial []byte
	lines   int
	afterCR bool // last terminator was '\r'; a following '\n' belongs to it
	onLine  func(string)
}

// NewLineBuffer creates an empty buffer. onLine, if non-nil, is called with
// each line (without separator) as soon as it is complete.
func NewLineBuffer(onLine func(string)) *LineBuffer {
	return &LineBuffer{onLine: onLine}
}

// Write implements io.Writer. Always returns len(p), nil.
func (b *LineBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	for len(p) > 0 {
		if b.afterCR {
			b.afterCR = false
			if p[0] == '\n' {
				p = p[1:]
				continue
			}
		}
		idx := bytes.IndexAny(p, "\r\n")
		if idx < 0 {
			b.partial = append(b.partial, p...)
			break
		}
		b.partial = append(b.partial, p[:idx]...)
		b.emit()
		b.afterCR = p[idx] == '\r'
		p = p[idx+1:]
	}
	return n, nil
}

// Flush completes a pending partial line. With nothing pending it is a
// no-op, so end of stream never adds a blank line.
func (b *LineBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.partial) > 0 {
		b.emit()
	}
}

// emit must be called with mu held.
func (b *LineBuffer) emit() {
	line := string(b.partial)
	b.partial = b.partial[:0]
	b.out.WriteString(line)
	b.out.WriteString(LineSeparator)
	b.lines++
	if b.onLine != nil {
		b.onLine(line)
	}
}

// String returns the completed lines. Pending partial data is not included.
func (b *LineBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// Lines returns the number of completed lines.
func (b *LineBuffer) Lines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lines
}

// Reset clears the buffer.
func (b *LineBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Reset()
	b.partial = b.partial[:0]
	b.lines = 0
	b.afterCR = false
}
