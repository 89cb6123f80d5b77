// Copyright © 2018 One Concern

package hub

import (
	"regexp"
	"strings"

	"github.com/oneconcern/comfyrestore/pkg/hub/status"
)

// Matcher selects repository files with shell-style allow patterns.
//
// Patterns follow fnmatch rules: '*' matches any sequence of characters including '/',
// '?' matches one character and '[...]' a character class ('[!...]' negates).
// A pattern ending with '/' selects everything below that directory.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles allow patterns. Without any pattern, all files match.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			pattern += "*"
		}
		re, err := regexp.Compile(translate(pattern))
		if err != nil {
			return nil, status.ErrInvalidPattern.Wrapf("%q: %v", pattern, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Match a file name against the allow patterns
func (m *Matcher) Match(name string) bool {
	if len(m.patterns) == 0 {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// translate a shell pattern into an anchored regular expression
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(runes) && runes[j] == '!' {
				j++
			}
			if j < len(runes) && runes[j] == ']' {
				j++
			}
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				b.WriteString(`\[`)
				continue
			}
			class := runes[i+1 : j]
			b.WriteByte('[')
			if len(class) > 0 && class[0] == '!' {
				b.WriteByte('^')
				class = class[1:]
			}
			for _, r := range class {
				if r == '\\' || r == '[' || r == ']' || r == '^' {
					b.WriteByte('\\')
				}
				b.WriteRune(r)
			}
			b.WriteByte(']')
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`$`)
	return b.String()
}
