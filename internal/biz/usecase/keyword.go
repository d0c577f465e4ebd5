package usecase

import (
	"regexp"
	"strings"
)

// Matcher checks message text against configured keyword patterns.
// A pattern hits when it occurs as a substring of the lowercased text, or,
// if the pattern compiles as a regular expression, when the expression
// matches. Compiled expressions are cached per pattern.
type Matcher struct {
	cache map[string]*regexp.Regexp
}

// NewMatcher creates a new keyword matcher
func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// Match reports whether any pattern matches text. Matching is
// case-insensitive; an empty pattern set never matches.
func (m *Matcher) Match(text string, patterns []string) bool {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
		if re := m.compile(p); re != nil && re.MatchString(lower) {
			return true
		}
	}
	return false
}

// compile returns the cached expression for pattern, or nil when the
// pattern is not valid regexp syntax (substring matching still applies).
func (m *Matcher) compile(pattern string) *regexp.Regexp {
	re, ok := m.cache[pattern]
	if !ok {
		re, _ = regexp.Compile("(?i)" + pattern)
		m.cache[pattern] = re
	}
	return re
}
