package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Def is an uncompiled matcher definition, as read from the command line
// or a profile file.
type Def struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// Matcher is a named regular expression applied to OSC payload text.
// Immutable once compiled.
type Matcher struct {
	Name string
	re   *regexp.Regexp
}

// Match is the result of one matcher firing on one payload.
type Match struct {
	Name  string
	Value string
}

// Set holds all configured matchers. Every matcher is evaluated
// independently against each payload; several may fire on the same text.
type Set struct {
	matchers []Matcher
}

// Compile validates and compiles all definitions. Any pattern that fails
// to compile makes the whole call fail; nothing is partially compiled.
func Compile(defs []Def) (*Set, error) {
	s := &Set{matchers: make([]Matcher, 0, len(defs))}
	for _, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("matcher: name must not be empty")
		}
		re, err := regexp.Compile(d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("matcher: invalid pattern for %q: %w", d.Name, err)
		}
		s.matchers = append(s.matchers, Matcher{Name: d.Name, re: re})
	}
	return s, nil
}

// Len returns the number of compiled matchers.
func (s *Set) Len() int { return len(s.matchers) }

// Eval runs every matcher against the payload text (unanchored search) and
// returns one Match per matcher that fired, in configuration order.
//
// If the pattern's first capturing group participated in the match, the
// group text is the value; otherwise the full matched substring is.
func (s *Set) Eval(payload string) []Match {
	var out []Match
	for _, m := range s.matchers {
		idx := m.re.FindStringSubmatchIndex(payload)
		if idx == nil {
			continue
		}
		value := payload[idx[0]:idx[1]]
		if len(idx) >= 4 && idx[2] >= 0 {
			value = payload[idx[2]:idx[3]]
		}
		out = append(out, Match{Name: m.Name, Value: value})
	}
	return out
}
