package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MatchEntry is one persisted match record.
type MatchEntry struct {
	ID        string
	SessionID string
	TS        time.Time
	Matcher   string
	Value     string
}

type MatchRepo struct {
	conn *sql.DB
}

func (s *Store) Matches() *MatchRepo {
	return &MatchRepo{conn: s.conn}
}

func (r *MatchRepo) Insert(ctx context.Context, entry *MatchEntry) error {
	if entry.ID == "" {
		id, err := NewID()
		if err != nil {
			return err
		}
		entry.ID = id
	}
	if entry.TS.IsZero() {
		entry.TS = time.Now()
	}

	_, err := r.conn.ExecContext(ctx, `
INSERT INTO matches (id, session_id, ts, matcher, value)
VALUES (?, ?, ?, ?, ?)
`, entry.ID, entry.SessionID, entry.TS.UTC().Format(time.RFC3339Nano), entry.Matcher, entry.Value)
	if err != nil {
		return fmt.Errorf("store: insert match: %w", err)
	}
	return nil
}

// Recent returns up to limit matches, newest first.
func (r *MatchRepo) Recent(ctx context.Context, limit int) ([]*MatchEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.QueryContext(ctx, `
SELECT id, session_id, ts, matcher, value
FROM matches
ORDER BY ts DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list recent matches: %w", err)
	}
	defer rows.Close()

	var entries []*MatchEntry
	for rows.Next() {
		var e MatchEntry
		var tsRaw string
		if err := rows.Scan(&e.ID, &e.SessionID, &tsRaw, &e.Matcher, &e.Value); err != nil {
			return nil, fmt.Errorf("store: scan match row: %w", err)
		}
		e.TS, err = time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("store: parse timestamp %q: %w", tsRaw, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate match rows: %w", err)
	}
	return entries, nil
}

// CountBySession returns how many matches were recorded for one session.
func (r *MatchRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.conn.QueryRowContext(ctx, `SELECT count(1) FROM matches WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count matches for session %q: %w", sessionID, err)
	}
	return count, nil
}
