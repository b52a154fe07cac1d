package auth

import "strings"

// RequireAuth reports whether path needs authentication given the
// excluded patterns. A pattern ending in "*" matches every path sharing
// its prefix. Any other pattern must equal the path once the path has a
// trailing slash; the pattern itself is never normalized.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}
	slashed := path
	if !strings.HasSuffix(slashed, "/") {
		slashed += "/"
	}
	for _, pattern := range excluded {
		if pattern == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return false
			}
			continue
		}
		if slashed == pattern {
			return false
		}
	}
	return true
}
