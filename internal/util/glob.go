package util

import (
	"regexp"
	"strings"
)

// GlobOptions configures glob-to-regex translation.
type GlobOptions struct {
	// Dot, when true, allows '*' to match a path segment that begins with a
	// '.'. Off by default, matching the conventional opt-in dotfile
	// semantics the spec calls out in §4.1. '**' matches dot-prefixed
	// segments whether or not Dot is set.
	Dot bool
}

// CompileGlob translates a glob pattern (where "**" matches across path
// separators and "*" matches within a single segment) into an anchored
// regular expression suitable for matching against normalized ("/a/b.go")
// paths.
func CompileGlob(pattern string, opts GlobOptions) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	dotGuard := ""
	if !opts.Dot {
		dotGuard = `(?:[^./][^/]*)?`
	}
	_ = dotGuard

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch {
		case i+1 < len(runes) && runes[i] == '*' && runes[i+1] == '*':
			// "**" matches zero or more path segments.
			b.WriteString(`.*`)
			i++
			// Swallow an immediately following separator so "**/x" also
			// matches "x" at the root.
			if i+1 < len(runes) && runes[i+1] == '/' {
				i++
			}
		case runes[i] == '*':
			if opts.Dot {
				b.WriteString(`[^/]*`)
			} else {
				b.WriteString(`(?:[^/.][^/]*)?`)
			}
		case runes[i] == '?':
			b.WriteString(`[^/]`)
		case strings.ContainsRune(`.+()|[]{}^$\`, runes[i]):
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		default:
			b.WriteString(string(runes[i]))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// MatchGlob reports whether path matches pattern under the given options.
func MatchGlob(pattern, path string, opts GlobOptions) (bool, error) {
	re, err := CompileGlob(pattern, opts)
	if err != nil {
		return false, err
	}
	return re.MatchString(path), nil
}
