package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/yosagi/osctap/internal/config"
	"github.com/yosagi/osctap/internal/hub"
	"github.com/yosagi/osctap/internal/matcher"
	"github.com/yosagi/osctap/internal/matchlog"
	"github.com/yosagi/osctap/internal/scanner"
	"github.com/yosagi/osctap/internal/session"
	"github.com/yosagi/osctap/internal/store"
)

func main() {
	// The terminal itself is the UI while a session runs, so the default
	// logger stays quiet below warning level and writes to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Patterns compile before anything is spawned or opened; a bad
	// pattern must abort with nothing on disk.
	set, err := matcher.Compile(cfg.Matchers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.TailCount > 0 {
		return tail(cfg)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: create output directory: %v\n", err)
		return 1
	}
	logPath := filepath.Join(cfg.OutputDir, config.LogFileName(time.Now()))
	fileSink, err := matchlog.OpenFile(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer fileSink.Close()

	sink := &matchlog.Fanout{Primary: fileSink}

	if cfg.DBPath != "" {
		st, err := store.Open(context.Background(), cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer st.Close()

		sessionID, err := store.NewID()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		sink.Extras = append(sink.Extras, st.Sink(sessionID))
	}

	if cfg.ListenAddr != "" {
		h := hub.New()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go h.Run(ctx)

		mux := http.NewServeMux()
		mux.HandleFunc("/feed", h.HandleWebSocket)
		srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("match feed server failed", "error", err)
			}
		}()
		defer srv.Close()

		sink.Extras = append(sink.Extras, h.Sink())
	}

	if set.Len() == 0 {
		fmt.Fprintln(os.Stderr, "[osctap] Warning: no matchers specified. No OSC sequences will be captured.")
	}
	fmt.Fprintf(os.Stderr, "[osctap] Logging to: %s\n", logPath)

	sc := scanner.New()
	onOutput := func(b []byte) {
		for _, payload := range sc.Push(b) {
			for _, m := range set.Eval(payload) {
				if err := sink.Log(matchlog.NewRecord(m.Name, m.Value)); err != nil {
					slog.Warn("write match record", "error", err)
				}
			}
		}
	}

	sess, err := session.Start(cfg.Command, onOutput, session.Options{})
	if err != nil {
		if errors.Is(err, session.ErrNotATTY) {
			fmt.Fprintln(os.Stderr, "Error: osctap must be run in a tty environment")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return sess.Wait()
}

// tail prints the most recent stored matches, oldest first, and exits.
func tail(cfg *config.Config) int {
	ctx := context.Background()
	st, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer st.Close()

	entries, err := st.Matches().Recent(ctx, cfg.TailCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("%s  %-12s %s\n", e.TS.Local().Format(time.RFC3339), e.Matcher, e.Value)
	}
	return 0
}
