// Package util contains small internal helpers shared across AgentHive
// packages. Nothing here is part of the public API.
package util

import (
	"strings"
)

// StripCodeFences removes a surrounding markdown code fence (``` or
// ```json) from model output, returning the inner text unchanged when no
// fence is present.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", ...).
		first := strings.TrimSpace(trimmed[:idx])
		if first == "" || isLanguageTag(first) {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return len(s) <= 16
}

// RepairTruncatedJSON appends the closing quotes, brackets and braces a
// truncated JSON document is missing. The result is best-effort: it yields a
// syntactically complete document for inputs cut off mid-string or
// mid-object, which covers the common case of model output hitting a token
// limit. Inputs that are not JSON-like are returned unchanged.
func RepairTruncatedJSON(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return s
	}

	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// ignore structural chars inside strings
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	// Drop a dangling separator left by truncation ("key": or trailing comma).
	trimmed := strings.TrimRight(s, " \t\n\r")
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, ":") {
		s = strings.TrimRight(trimmed, ",:")
	}
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			s += "}"
		case '[':
			s += "]"
		}
	}
	return s
}
