package session

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// signalBridge turns asynchronous OS notifications into channel messages
// consumed by the session loop, so every state mutation happens on one
// control path instead of inside a signal handler.
type signalBridge struct {
	winch chan os.Signal
	tstp  chan os.Signal
	cont  chan os.Signal
	chld  chan os.Signal
}

func newSignalBridge() *signalBridge {
	b := &signalBridge{
		winch: make(chan os.Signal, 1),
		tstp:  make(chan os.Signal, 1),
		cont:  make(chan os.Signal, 1),
		chld:  make(chan os.Signal, 1),
	}
	signal.Notify(b.winch, unix.SIGWINCH)
	signal.Notify(b.tstp, unix.SIGTSTP)
	signal.Notify(b.cont, unix.SIGCONT)
	signal.Notify(b.chld, unix.SIGCHLD)
	return b
}

func (b *signalBridge) release() {
	signal.Stop(b.winch)
	signal.Stop(b.tstp)
	signal.Stop(b.cont)
	signal.Stop(b.chld)
}

// stop mirrors a job-control stop across the wrapper and its child. The
// terminal leaves raw mode first so the shell the user lands in behaves
// normally; the default SIGTSTP disposition is restored before the
// wrapper stops itself, so a later direct SIGTSTP suspends it like any
// program. forwardToChild is false when the child is already stopped.
func (s *Session) stop(forwardToChild bool) {
	s.mode.leaveRaw()
	if forwardToChild && !s.reaped {
		_ = s.cmd.Process.Signal(unix.SIGTSTP)
	}
	signal.Reset(unix.SIGTSTP)
	_ = unix.Kill(os.Getpid(), unix.SIGTSTP)
}

// resume undoes stop after the wrapper is continued: re-subscribe to
// SIGTSTP, re-enter raw mode, and continue the child.
func (s *Session) resume() {
	signal.Notify(s.sig.tstp, unix.SIGTSTP)
	_ = s.mode.enterRaw()
	if !s.reaped {
		_ = s.cmd.Process.Signal(unix.SIGCONT)
	}
}

// reapNonBlocking polls the child's state. It reports true when the
// child has just stopped. An exited or signaled child is reaped and its
// status remembered for teardown; end-of-session handling stays with the
// loop, which will observe the pty closing.
func (s *Session) reapNonBlocking() bool {
	if s.reaped {
		return false
	}
	var ws unix.WaitStatus
	pid, err := unix.Wait4(s.cmd.Process.Pid, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
	if err != nil || pid != s.cmd.Process.Pid {
		return false
	}
	if ws.Stopped() {
		return true
	}
	if ws.Exited() || ws.Signaled() {
		s.reaped = true
		s.status = ws
	}
	return false
}
