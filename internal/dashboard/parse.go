package dashboard

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// ParseEmbeddedJSON decodes a payload that may arrive already structured or as
// serialized text. A nil, empty or malformed value yields ok=false; it never
// panics and performs no validation beyond the JSON decode.
func ParseEmbeddedJSON[T any](value any) (T, bool) {
	var zero T
	switch v := value.(type) {
	case nil:
		return zero, false
	case string:
		return decodeText[T](v)
	case *string:
		if v == nil {
			return zero, false
		}
		return decodeText[T](*v)
	case json.RawMessage:
		return decodeRaw[T](v)
	case []byte:
		return decodeRaw[T](v)
	}
	if v, ok := value.(T); ok {
		return v, true
	}
	// Structured values such as map[string]any or []any from a generic decode.
	data, err := json.Marshal(value)
	if err != nil {
		return zero, false
	}
	return decodeRaw[T](data)
}

func decodeText[T any](s string) (T, bool) {
	var out T
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return out, false
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

func decodeRaw[T any](raw []byte) (T, bool) {
	var zero T
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return zero, false
	}
	// A JSON string literal holds a payload serialized twice.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return zero, false
		}
		if out, ok := decodeText[T](inner); ok {
			return out, true
		}
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false
	}
	return out, true
}

// DateLayout renders a medium date with a short time.
const DateLayout = "Jan 2, 2006, 3:04 PM"

// FormatDate renders t for display. The zero time renders as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
