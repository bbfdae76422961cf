// Package jsonx extracts structured JSON from LLM output that may be wrapped
// in markdown fences or surrounded by prose. Extraction is best-effort: the
// helpers return the first well-formed document of the requested shape and
// report false when none exists, they never panic on malformed input.
package jsonx

import (
	"strings"

	"github.com/tidwall/gjson"
)

// StripFences removes a surrounding markdown code fence (``` or ```json)
// from s, if present, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// FirstArray returns the first well-formed JSON array in s, scanning past
// any leading prose. The second return is false when no valid array exists.
func FirstArray(s string) (string, bool) {
	return first(StripFences(s), '[', ']')
}

// FirstObject returns the first well-formed JSON object in s, scanning past
// any leading prose. The second return is false when no valid object exists.
func FirstObject(s string) (string, bool) {
	return first(StripFences(s), '{', '}')
}

// first scans for the first balanced open..close span that parses as JSON.
// The balance counter ignores brackets inside string literals.
func first(s string, open, close byte) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != open {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = inString
			case c == '"':
				inString = !inString
			case inString:
			case c == open:
				depth++
			case c == close:
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if gjson.Valid(candidate) {
						return candidate, true
					}
					// Unbalanced-looking but invalid JSON, keep scanning
					// from the next opener.
					i = len(s)
				}
			}
		}
	}
	return "", false
}
