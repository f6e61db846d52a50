package util

import (
	"encoding/json"
	"strings"
)

// DecodeLooseJSON decodes model-produced text into v, tolerating the
// decoration models tend to add around structured output: markdown code
// fences, a language hint, and leading or trailing prose. It tries the
// raw text first, then the fenced block, then the first balanced JSON
// object or array found in the text.
func DecodeLooseJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if fenced := StripCodeFences(trimmed); fenced != trimmed {
		if err := json.Unmarshal([]byte(fenced), v); err == nil {
			return nil
		}
	}

	if candidate := extractJSONValue(trimmed); candidate != "" {
		return json.Unmarshal([]byte(candidate), v)
	}

	return json.Unmarshal([]byte(trimmed), v)
}

// StripCodeFences removes a surrounding markdown code fence, including an
// optional language tag, and returns the inner text. Text without a fence
// is returned unchanged.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	inner := strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(inner, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json")
		inner = inner[idx+1:]
	}

	if idx := strings.LastIndex(inner, "```"); idx >= 0 {
		inner = inner[:idx]
	}

	return strings.TrimSpace(inner)
}

// extractJSONValue returns the first balanced JSON object or array in text,
// or "" if none is found. String literals and escapes are respected so that
// braces inside strings do not confuse the scan.
func extractJSONValue(text string) string {
	start := -1
	for i, r := range text {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	var (
		depth    int
		inString bool
		escaped  bool
	)

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return ""
}
