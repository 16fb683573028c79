// Package util holds the small, dependency-free helpers shared by the
// backend variants and the tool set: path normalization, formatted reads,
// token estimation, and glob translation.
package util

import (
	"fmt"
	"strings"
)

// NormalizePath enforces the leading-slash convention used throughout the
// virtual filesystem. Whitespace-only paths are rejected outright, matching
// the spec's validate_path("   ") boundary case.
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path must not be empty or whitespace-only")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// NormalizePrefix normalizes a listing prefix: empty/whitespace-only
// becomes "/", and a trailing slash is always enforced so prefix matching
// never confuses "/a" with "/ab".
func NormalizePrefix(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// LongestMatchingPrefix returns the longest key in routes that is a prefix
// of path, and whether any route matched. Used by the composite backend to
// pick which mounted backend owns a path (spec §4.2).
func LongestMatchingPrefix(path string, routes map[string]struct{}) (string, bool) {
	best := ""
	found := false
	for prefix := range routes {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best = prefix
			found = true
		}
	}
	return best, found
}

// StripPrefix removes prefix from path, always preserving a leading slash
// on the remainder so the routed backend still sees an absolute path.
func StripPrefix(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return rest
}
