package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern decides whether a library path satisfies one query constraint.
type Pattern interface {
	Match(path string) bool
	String() string
}

type regexPattern struct {
	re *regexp.Regexp
}

func (p regexPattern) Match(path string) bool { return p.re.MatchString(path) }
func (p regexPattern) String() string         { return p.re.String() }

type substringPattern struct {
	sub string
}

func (p substringPattern) Match(path string) bool { return strings.Contains(path, p.sub) }
func (p substringPattern) String() string         { return p.sub }

// CompilePatterns compiles a comma-separated list of library patterns. Each
// element is an unanchored regular expression, so it matches when it occurs
// anywhere in the path. Elements are used as given, whitespace included.
// Empty elements, "*" and ".*" match everything and are dropped.
func CompilePatterns(raw string) ([]Pattern, error) {
	var patterns []Pattern
	for _, elem := range strings.Split(raw, ",") {
		if isMatchAll(elem) {
			continue
		}
		re, err := regexp.Compile(elem)
		if err != nil {
			return nil, fmt.Errorf("invalid library pattern %q: %w", elem, err)
		}
		patterns = append(patterns, regexPattern{re: re})
	}
	return patterns, nil
}

// FlowCellPattern matches paths containing the flow cell identifier
// literally.
func FlowCellPattern(flowCell string) Pattern {
	return substringPattern{sub: flowCell}
}

func isMatchAll(elem string) bool {
	switch elem {
	case "", "*", ".*":
		return true
	}
	return false
}

// matchAll reports whether path satisfies every pattern, stopping at the
// first that fails.
func matchAll(path string, patterns []Pattern) bool {
	for _, p := range patterns {
		if !p.Match(path) {
			return false
		}
	}
	return true
}
