// Package jsonx extracts JSON objects from LLM completions, which routinely
// wrap their output in markdown code fences or surround it with prose.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence ("```json ... ```" or
// "``` ... ```") if present. Text without fences is returned trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop a language tag like "json" on the fence line.
		first := strings.TrimSpace(s[:nl])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			s = s[nl+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ExtractObject returns the substring spanning the first '{' through the last
// '}' of s. The second return is false when no such span exists.
func ExtractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// DecodeObject strips fences, locates the outermost object span and unmarshals
// it into v. It fails when the text contains no object or the span is not
// valid JSON.
func DecodeObject(s string, v any) error {
	obj, ok := ExtractObject(StripFences(s))
	if !ok {
		return fmt.Errorf("no json object found in text")
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("decode json object: %w", err)
	}
	return nil
}
