// Package scanner extracts OSC (Operating System Command) escape sequence
// payloads from a terminal output byte stream. Sequences may span multiple
// reads; the scanner keeps a bounded carry-over buffer between pushes.
package scanner

import (
	"regexp"
	"unicode/utf8"
)

// oscPattern matches one complete OSC sequence: ESC ] payload BEL.
// The payload runs up to the first BEL; ST-terminated and nested
// sequences are not recognized.
var oscPattern = regexp.MustCompile(`\x1b\]([^\x07]*)\x07`)

const (
	// maxBuffer is the point past which an unterminated stream is
	// considered runaway and the buffer gets truncated.
	maxBuffer = 10000
	// keepOnTruncate is how much of the buffer tail survives truncation.
	keepOnTruncate = 1000
)

// Scanner accumulates child output and yields decoded OSC payloads in
// emission order. A Scanner is not safe for concurrent use; the session
// loop is its only caller.
type Scanner struct {
	buf []byte
}

func New() *Scanner {
	return &Scanner{}
}

// Push appends a chunk of child output and returns every complete OSC
// payload now available, in order. An incomplete trailing sequence is
// carried over to the next call, so splitting a stream into arbitrary
// chunks yields the same payloads as pushing it whole.
//
// Payloads that are not valid UTF-8 are dropped: malformed escape content
// is noise from the child, not an error in the wrapper.
//
// If the buffer grows past 10000 bytes with no complete sequence in it,
// it is cut down to its final 1000 bytes. That can lose one partial
// sequence straddling the cut; the alternative is unbounded memory
// against a child that never terminates a sequence.
func (s *Scanner) Push(chunk []byte) []string {
	s.buf = append(s.buf, chunk...)

	var payloads []string
	for {
		idx := oscPattern.FindSubmatchIndex(s.buf)
		if idx == nil {
			break
		}
		payload := s.buf[idx[2]:idx[3]]
		if utf8.Valid(payload) {
			payloads = append(payloads, string(payload))
		}
		s.buf = s.buf[idx[1]:]
	}

	if len(s.buf) > maxBuffer {
		s.buf = append([]byte(nil), s.buf[len(s.buf)-keepOnTruncate:]...)
	}
	return payloads
}

// Buffered reports how many unscanned bytes are carried over.
func (s *Scanner) Buffered() int { return len(s.buf) }
