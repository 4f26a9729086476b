// Package parse repairs loosely structured model output into JSON.
//
// LLM responses routinely wrap the JSON object they were asked for in
// prose or code fences. Extract recovers the first balanced top-level
// object so callers can unmarshal it with their own schema.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoObject is returned when no balanced JSON object can be recovered.
var ErrNoObject = errors.New("no JSON object found in text")

// Extract returns the raw bytes of the first balanced top-level JSON
// object in text. If the whole trimmed text is already a valid object it
// is returned as-is.
func Extract(text string) ([]byte, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, ErrNoObject
	}
	if json.Valid([]byte(cleaned)) && strings.HasPrefix(cleaned, "{") {
		return []byte(cleaned), nil
	}

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
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
				candidate := cleaned[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return nil, ErrNoObject
				}
				return []byte(candidate), nil
			}
		}
	}
	return nil, ErrNoObject
}

// Into extracts the first JSON object from text and unmarshals it into v.
func Into(text string, v any) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal repaired object: %w", err)
	}
	return nil
}
