package irweb

// Event is the result of feeding one byte to an Accumulator.
type Event int

// All the different enumerations of Event.
const (
	Continue Event = iota
	LineComplete
	HeaderBlockComplete
	HeaderOverflow
)

func (e Event) String() string {
	switch e {
	case Continue:
		return "continue"
	case LineComplete:
		return "line complete"
	case HeaderBlockComplete:
		return "header block complete"
	case HeaderOverflow:
		return "header overflow"
	}
	return "unknown"
}

// Accumulator rebuilds an HTTP header block from a byte stream. Every byte
// is kept verbatim; the current line excludes carriage returns. The block is
// complete when a newline arrives while the current line is empty.
type Accumulator struct {
	maxBytes int
	buf      []byte
	line     []byte
}

// NewAccumulator returns an Accumulator that reports HeaderOverflow once more
// than maxBytes bytes have been consumed. A maxBytes of 0 disables the cap.
func NewAccumulator(maxBytes int) *Accumulator {
	return &Accumulator{maxBytes: maxBytes}
}

// Consume feeds a single byte.
func (a *Accumulator) Consume(c byte) Event {
	if a.maxBytes > 0 && len(a.buf) >= a.maxBytes {
		return HeaderOverflow
	}
	a.buf = append(a.buf, c)

	switch c {
	case '\n':
		if len(a.line) == 0 {
			return HeaderBlockComplete
		}
		a.line = a.line[:0]
		return LineComplete
	case '\r':
		return Continue
	}
	a.line = append(a.line, c)
	return Continue
}

// Header returns everything consumed so far.
func (a *Accumulator) Header() string {
	return string(a.buf)
}

// Len returns the number of bytes consumed so far.
func (a *Accumulator) Len() int {
	return len(a.buf)
}

// Reset empties the buffer and the current line.
func (a *Accumulator) Reset() {
	a.buf = a.buf[:0]
	a.line = a.line[:0]
}
