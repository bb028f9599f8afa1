// Package util holds small helpers shared across packages: text truncation
// for context summaries and extraction of JSON objects from model output.
package util

import "strings"

// Truncate shortens s to at most n runes, appending an ellipsis marker when
// anything was cut.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// ExtractJSON returns the first balanced top-level JSON object found in s.
// Models frequently wrap structured output in prose or code fences; this
// strips both. Returns "" when no object is present.
func ExtractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
