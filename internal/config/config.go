// Package config parses the osctap command line and optional matcher
// profile into the structured inputs the session core consumes.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yosagi/osctap/internal/matcher"
)

type Config struct {
	OutputDir  string
	DBPath     string
	ListenAddr string
	TailCount  int
	Matchers   []matcher.Def
	Command    []string
}

// Load parses args (without the program name). The command to wrap
// follows the flags, conventionally after "--".
func Load(args []string, stderr io.Writer) (*Config, error) {
	cfg := &Config{OutputDir: "."}
	var profilePath string

	fs := flag.NewFlagSet("osctap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: osctap [flags] -- command [args...]")
		fmt.Fprintln(stderr, "\nA pty wrapper that captures OSC sequences.")
		fmt.Fprintln(stderr, "Example: osctap -output ./logs -m 'TITLE=0;(.*)' -- claude")
		fmt.Fprintln(stderr, "\nFlags:")
		fs.PrintDefaults()
	}

	addMatcher := func(v string) error {
		name, pattern, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return fmt.Errorf("matcher must be NAME=PATTERN, got %q", v)
		}
		cfg.Matchers = append(cfg.Matchers, matcher.Def{Name: name, Pattern: pattern})
		return nil
	}

	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "log output directory")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "shorthand for -output")
	fs.Func("matcher", "matcher definition as NAME=PATTERN, repeatable", addMatcher)
	fs.Func("m", "shorthand for -matcher", addMatcher)
	fs.StringVar(&profilePath, "profile", "", "YAML profile with matchers and an optional default command")
	fs.StringVar(&cfg.DBPath, "db", "", "sqlite file for match history (disabled if empty)")
	fs.StringVar(&cfg.ListenAddr, "listen", "", "serve a live websocket match feed on this address (disabled if empty)")
	fs.IntVar(&cfg.TailCount, "tail", 0, "print the N most recent matches from -db and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) > 0 {
		cfg.Command = rest
	}

	if profilePath != "" {
		if err := cfg.applyProfile(profilePath); err != nil {
			return nil, err
		}
	}

	if cfg.TailCount > 0 {
		if cfg.DBPath == "" {
			return nil, errors.New("-tail requires -db")
		}
		return cfg, nil
	}

	if len(cfg.Command) == 0 {
		return nil, errors.New("a command is required (specify after --)")
	}
	return cfg, nil
}

// LogFileName returns the timestamp-based log filename for a session
// started at the given time.
func LogFileName(now time.Time) string {
	return now.Format("20060102_150405") + ".jsonl"
}
