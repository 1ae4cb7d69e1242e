package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFenceRegex = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// stripCodeFences replaces every fenced block with its inner text.
func stripCodeFences(raw string) string {
	return codeFenceRegex.ReplaceAllString(raw, "$1")
}

// balancedObjectEnd returns the index of the '}' closing the object that opens
// at start, or -1. Braces inside string literals are ignored.
func balancedObjectEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ExtractJSONObject pulls the first well-formed JSON object out of free model
// text. Leading and trailing prose and markdown fences are skipped.
func ExtractJSONObject(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(stripCodeFences(raw))
	if text == "" {
		return nil, &MalformedOutputError{Reason: "empty response"}
	}

	sawOpen := false
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		sawOpen = true

		// An unclosed brace encloses everything after it, so no later
		// candidate can be a top-level object.
		end := balancedObjectEnd(text, i)
		if end < 0 {
			return nil, &MalformedOutputError{Reason: "no balanced JSON object found"}
		}

		span := text[i : end+1]
		if json.Valid([]byte(span)) {
			return json.RawMessage(span), nil
		}
		i = end
	}

	if !sawOpen {
		return nil, &MalformedOutputError{Reason: "no JSON object found"}
	}
	return nil, &MalformedOutputError{Reason: "no valid JSON object found"}
}

// DecodeModelJSON extracts the first JSON object from raw and decodes it into v.
func DecodeModelJSON(raw string, v interface{}) error {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return &MalformedOutputError{Reason: "extracted object does not match expected shape", Err: err}
	}
	return nil
}
