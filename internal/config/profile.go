package config

import (
	"fmt"
	"os"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"github.com/yosagi/osctap/internal/matcher"
)

// Profile is a reusable matcher set loaded from YAML:
//
//	command: "claude --continue"
//	matchers:
//	  - name: TITLE
//	    pattern: "0;(.*)"
type Profile struct {
	Command  string        `yaml:"command"`
	Matchers []matcher.Def `yaml:"matchers"`
}

// applyProfile merges a profile into the config. Profile matchers come
// before command-line ones; a command given on the command line wins
// over the profile's.
func (c *Config) applyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse profile %q: %w", path, err)
	}

	c.Matchers = append(append([]matcher.Def(nil), p.Matchers...), c.Matchers...)

	if len(c.Command) == 0 && p.Command != "" {
		argv, err := shellquote.Split(p.Command)
		if err != nil {
			return fmt.Errorf("parse profile command %q: %w", p.Command, err)
		}
		c.Command = argv
	}
	return nil
}
