package session

import (
	"os"

	"golang.org/x/sys/unix"
)

// Wait drives the session until the controlling terminal's input ends or
// the child's terminal closes, then tears everything down and returns
// the wrapper's exit code: the child's own code if it exited normally, 1
// if it was killed by a signal or could not be reaped. Teardown runs on
// every exit path, so the terminal is never left in raw mode.
func (s *Session) Wait() (code int) {
	defer func() {
		code = s.teardown()
	}()
	s.loop()
	return
}

// loop multiplexes the two data sources and the signal bridge. Bytes are
// forwarded verbatim, one chunk at a time, with no reordering; child
// output reaches the observer in the same order it reaches the terminal.
func (s *Session) loop() {
	inCh := readPump(s.in)
	outCh := readPump(s.ptmx)

	for {
		select {
		case chunk, ok := <-inCh:
			if !ok {
				return
			}
			if _, err := s.ptmx.Write(chunk); err != nil {
				return
			}

		case chunk, ok := <-outCh:
			if !ok {
				return
			}
			_, _ = s.out.Write(chunk)
			if s.onOutput != nil {
				s.onOutput(chunk)
			}

		case <-s.sig.winch:
			s.propagateWinsize()

		case <-s.sig.tstp:
			s.stop(true)

		case <-s.sig.cont:
			s.resume()

		case <-s.sig.chld:
			if s.reapNonBlocking() {
				s.stop(false)
			}
		}
	}
}

// readPump reads chunks from f until EOF or error and delivers them on
// the returned channel, which is closed when reading ends. A zero-length
// read counts as end of input.
func readPump(f *os.File) <-chan []byte {
	ch := make(chan []byte)
	go func() {
		defer close(ch)
		buf := make([]byte, ioChunkSize)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				ch <- append([]byte(nil), buf[:n]...)
			}
			if err != nil || n == 0 {
				return
			}
		}
	}()
	return ch
}

// teardown restores the terminal, closes the pty master, and reaps the
// child if the signal path has not already done so.
func (s *Session) teardown() int {
	s.sig.release()
	s.mode.leaveRaw()
	_ = s.ptmx.Close()

	if !s.reaped {
		var ws unix.WaitStatus
		for {
			pid, err := unix.Wait4(s.cmd.Process.Pid, &ws, 0, nil)
			if err == unix.EINTR {
				continue
			}
			if err != nil || pid != s.cmd.Process.Pid {
				return 1
			}
			break
		}
		s.reaped = true
		s.status = ws
	}

	if s.status.Exited() {
		return s.status.ExitStatus()
	}
	return 1
}
