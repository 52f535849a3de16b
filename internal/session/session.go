// Package session runs a child process on a pseudo-terminal, forwarding
// the wrapper's terminal I/O verbatim in both directions while handing
// every child output chunk to an observer. It keeps the wrapper's
// job-control and terminal-mode state consistent with the child's across
// suspend, resume, and resize.
package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	creackpty "github.com/creack/pty"
	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// ioChunkSize bounds a single read in either direction. Small enough to
// keep interactive latency low.
const ioChunkSize = 1024

// ErrNotATTY is returned by Start when the wrapper's input is not an
// interactive terminal.
var ErrNotATTY = errors.New("session: not attached to a terminal")

// OutputFunc observes every chunk read from the child, on the session
// loop, in read order.
type OutputFunc func([]byte)

// Options overrides the session's terminal endpoints. Zero values mean
// the process's own stdin and stdout.
type Options struct {
	In  *os.File
	Out *os.File
}

// Session owns a running wrapped child: the pty master, the saved
// terminal attributes, and the child's eventual wait status. All fields
// are touched only from the goroutine driving Wait.
type Session struct {
	cmd      *exec.Cmd
	ptmx     *os.File
	in       *os.File
	out      *os.File
	mode     *termMode
	sig      *signalBridge
	onOutput OutputFunc

	reaped bool
	status unix.WaitStatus
}

// Start validates the environment, spawns argv on a fresh pty sized like
// the controlling terminal, switches the terminal to raw mode, and
// installs the signal bridge. The returned session must be driven with
// Wait, which also owns all cleanup.
func Start(argv []string, onOutput OutputFunc, opts Options) (*Session, error) {
	if len(argv) == 0 {
		return nil, errors.New("session: argv must not be empty")
	}

	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	if !isatty.IsTerminal(in.Fd()) {
		return nil, ErrNotATTY
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	ptmx, err := startWithInheritedSize(in, cmd)
	if err != nil {
		return nil, fmt.Errorf("session: spawn %q: %w", argv[0], err)
	}

	s := &Session{
		cmd:      cmd,
		ptmx:     ptmx,
		in:       in,
		out:      out,
		mode:     newTermMode(in),
		onOutput: onOutput,
	}

	if err := s.mode.enterRaw(); err != nil {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
		return nil, fmt.Errorf("session: enter raw mode: %w", err)
	}

	s.sig = newSignalBridge()
	return s, nil
}

// startWithInheritedSize spawns the command on a new pty whose window
// size matches the controlling terminal. Size propagation is best
// effort; a terminal that cannot report its size is not fatal.
func startWithInheritedSize(in *os.File, cmd *exec.Cmd) (*os.File, error) {
	ws, err := creackpty.GetsizeFull(in)
	if err != nil {
		return creackpty.Start(cmd)
	}
	return creackpty.StartWithSize(cmd, ws)
}

// propagateWinsize copies the controlling terminal's current geometry to
// the child's pty. Failures are ignored.
func (s *Session) propagateWinsize() {
	_ = creackpty.InheritSize(s.in, s.ptmx)
}
