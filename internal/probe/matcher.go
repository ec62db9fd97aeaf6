package probe

import "strings"

// Matcher decides whether an observed OS command line corresponds to the
// expected one. Implementations must be safe for concurrent use.
type Matcher interface {
	Match(cmdline, expected string) bool
	Describe() string
}

// ExactMatcher compares the full joined command line case-insensitively.
// This mirrors how the apps are launched: exec path plus argument string.
type ExactMatcher struct{}

func (ExactMatcher) Match(cmdline, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(cmdline), strings.TrimSpace(expected))
}

func (ExactMatcher) Describe() string { return "exact" }

// TokenMatcher compares normalized token lists. It tolerates quoting and
// whitespace differences that break exact string equality across platforms.
type TokenMatcher struct{}

func (TokenMatcher) Match(cmdline, expected string) bool {
	a := strings.Fields(cmdline)
	b := strings.Fields(expected)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(trimQuotes(a[i]), trimQuotes(b[i])) {
			return false
		}
	}
	return len(a) > 0
}

func (TokenMatcher) Describe() string { return "tokens" }

func trimQuotes(s string) string {
	if n := len(s); n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			return s[1 : n-1]
		}
	}
	return s
}
