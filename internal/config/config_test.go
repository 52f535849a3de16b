package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yosagi/osctap/internal/matcher"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{
			name: "command only",
			args: []string{"--", "bash", "-l"},
			want: &Config{OutputDir: ".", Command: []string{"bash", "-l"}},
		},
		{
			name: "command without double dash",
			args: []string{"vim", "notes.txt"},
			want: &Config{OutputDir: ".", Command: []string{"vim", "notes.txt"}},
		},
		{
			name: "matchers and output dir",
			args: []string{"-o", "/tmp/logs", "-m", "TITLE=0;(.*)", "-m", "CWD=7;(.*)", "--", "claude"},
			want: &Config{
				OutputDir: "/tmp/logs",
				Matchers: []matcher.Def{
					{Name: "TITLE", Pattern: "0;(.*)"},
					{Name: "CWD", Pattern: "7;(.*)"},
				},
				Command: []string{"claude"},
			},
		},
		{
			name: "pattern may contain equals",
			args: []string{"-m", "KV=state=(\\w+)", "--", "sh"},
			want: &Config{
				OutputDir: ".",
				Matchers:  []matcher.Def{{Name: "KV", Pattern: "state=(\\w+)"}},
				Command:   []string{"sh"},
			},
		},
		{
			name:    "missing command",
			args:    []string{"-m", "T=x"},
			wantErr: true,
		},
		{
			name:    "malformed matcher",
			args:    []string{"-m", "no-equals-sign", "--", "sh"},
			wantErr: true,
		},
		{
			name:    "tail without db",
			args:    []string{"-tail", "5"},
			wantErr: true,
		},
		{
			name: "tail mode needs no command",
			args: []string{"-db", "/tmp/x.db", "-tail", "5"},
			want: &Config{OutputDir: ".", DBPath: "/tmp/x.db", TailCount: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	profile := `
command: "claude --continue"
matchers:
  - name: TITLE
    pattern: "0;(.*)"
  - name: NOTIFY
    pattern: "9;(.*)"
`
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	t.Run("profile supplies command and matchers", func(t *testing.T) {
		cfg, err := Load([]string{"-profile", path}, io.Discard)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !reflect.DeepEqual(cfg.Command, []string{"claude", "--continue"}) {
			t.Errorf("command = %v", cfg.Command)
		}
		if len(cfg.Matchers) != 2 || cfg.Matchers[0].Name != "TITLE" {
			t.Errorf("matchers = %v", cfg.Matchers)
		}
	})

	t.Run("command line overrides profile command and appends matchers", func(t *testing.T) {
		cfg, err := Load([]string{"-profile", path, "-m", "EXTRA=x", "--", "bash"}, io.Discard)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !reflect.DeepEqual(cfg.Command, []string{"bash"}) {
			t.Errorf("command = %v", cfg.Command)
		}
		wantNames := []string{"TITLE", "NOTIFY", "EXTRA"}
		if len(cfg.Matchers) != len(wantNames) {
			t.Fatalf("matchers = %v", cfg.Matchers)
		}
		for i, n := range wantNames {
			if cfg.Matchers[i].Name != n {
				t.Errorf("matcher %d = %q, want %q", i, cfg.Matchers[i].Name, n)
			}
		}
	})

	t.Run("missing profile file", func(t *testing.T) {
		_, err := Load([]string{"-profile", filepath.Join(dir, "nope.yaml"), "--", "sh"}, io.Discard)
		if err == nil {
			t.Fatal("expected error for missing profile")
		}
	})
}

func TestLogFileName(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 5, 7, 0, time.Local)
	got := LogFileName(now)
	if got != "20260301_090507.jsonl" {
		t.Errorf("LogFileName = %q", got)
	}
}
