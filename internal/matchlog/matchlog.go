// Package matchlog serializes matcher hits as JSON Lines records.
package matchlog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Record is one matcher hit. It is created, written, and forgotten;
// nothing aggregates records in memory.
type Record struct {
	TS      string `json:"ts"`
	Matcher string `json:"matcher"`
	Value   string `json:"string"`
}

// NewRecord stamps a record with the current local time, ISO-8601 with
// UTC offset.
func NewRecord(matcherName, value string) Record {
	return Record{
		TS:      time.Now().Format(time.RFC3339Nano),
		Matcher: matcherName,
		Value:   value,
	}
}

// Sink receives match records. Implementations must tolerate being
// called once per match for the lifetime of a session.
type Sink interface {
	Log(Record) error
}

// FileSink appends records to a JSON Lines file, one object per line.
// Writes go straight to the descriptor so records survive an abrupt
// process termination.
type FileSink struct {
	f *os.File
}

// OpenFile opens (or creates) the log file in append mode.
func OpenFile(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("matchlog: open %q: %w", path, err)
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Log(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("matchlog: marshal record: %w", err)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("matchlog: write record: %w", err)
	}
	return nil
}

func (s *FileSink) Close() error {
	return s.f.Close()
}

// Fanout delivers every record to the primary sink and, best-effort, to
// any number of secondary sinks. A secondary failure is logged and never
// ends the session.
type Fanout struct {
	Primary Sink
	Extras  []Sink
}

func (f *Fanout) Log(rec Record) error {
	for _, s := range f.Extras {
		if err := s.Log(rec); err != nil {
			slog.Warn("secondary match sink failed", "error", err)
		}
	}
	return f.Primary.Log(rec)
}
