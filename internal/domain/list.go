package domain

import (
	"bytes"
	"encoding/json"
)

// DecodeList reads a JSON array of T. A body that is not an array reads as
// an empty list. null elements and elements that do not decode as T are
// skipped, so one malformed entry never hides its siblings.
func DecodeList[T any](data []byte) []T {
	var raw []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return []T{}
	}

	out := make([]T, 0, len(raw))
	for _, elem := range raw {
		if bytes.Equal(elem, []byte("null")) {
			continue
		}
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
