package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yosagi/osctap/internal/matchlog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osctap-test.db")
	s, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
	return s
}

func TestOpenRunsMigrations(t *testing.T) {
	s := openTestStore(t)

	var count int
	err := s.conn.QueryRow(`SELECT count(1) FROM sqlite_master WHERE type='table' AND name='matches'`).Scan(&count)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Fatal("matches table not created")
	}
}

func TestInsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	repo := s.Matches()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := repo.Insert(ctx, &MatchEntry{
			SessionID: "sess-1",
			TS:        base.Add(time.Duration(i) * time.Minute),
			Matcher:   "TITLE",
			Value:     []string{"first", "second", "third"}[i],
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	entries, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Value != "third" || entries[1].Value != "second" {
		t.Errorf("wrong order: got %q then %q", entries[0].Value, entries[1].Value)
	}
	if entries[0].ID == "" {
		t.Error("Insert did not assign an ID")
	}

	count, err := repo.CountBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSinkRecordsMatches(t *testing.T) {
	s := openTestStore(t)
	sink := s.Sink("sess-42")

	if err := sink.Log(matchlog.NewRecord("TITLE", "hello")); err != nil {
		t.Fatalf("Sink.Log: %v", err)
	}

	count, err := s.Matches().CountBySession(context.Background(), "sess-42")
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
