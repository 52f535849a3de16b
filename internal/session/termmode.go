package session

import (
	"os"

	"golang.org/x/term"
)

// termMode is a two-state machine (cooked, raw) over the controlling
// terminal. Transitions are idempotent, and the attributes saved on the
// first raw entry are the ones every later restore returns to.
type termMode struct {
	fd    int
	saved *term.State
	raw   bool
}

func newTermMode(f *os.File) *termMode {
	return &termMode{fd: int(f.Fd())}
}

func (m *termMode) enterRaw() error {
	if m.raw {
		return nil
	}
	st, err := term.MakeRaw(m.fd)
	if err != nil {
		return err
	}
	if m.saved == nil {
		m.saved = st
	}
	m.raw = true
	return nil
}

func (m *termMode) leaveRaw() {
	if !m.raw || m.saved == nil {
		return
	}
	_ = term.Restore(m.fd, m.saved)
	m.raw = false
}
