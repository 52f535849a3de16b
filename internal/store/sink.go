package store

import (
	"context"
	"time"

	"github.com/yosagi/osctap/internal/matchlog"
)

// Sink adapts the store to the matchlog.Sink interface so the session
// pipeline can tee records into the history database.
type Sink struct {
	repo      *MatchRepo
	sessionID string
}

func (s *Store) Sink(sessionID string) *Sink {
	return &Sink{repo: s.Matches(), sessionID: sessionID}
}

func (s *Sink) Log(rec matchlog.Record) error {
	ts, err := time.Parse(time.RFC3339Nano, rec.TS)
	if err != nil {
		ts = time.Now()
	}
	return s.repo.Insert(context.Background(), &MatchEntry{
		SessionID: s.sessionID,
		TS:        ts,
		Matcher:   rec.Matcher,
		Value:     rec.Value,
	})
}
