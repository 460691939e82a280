package backend

import (
	"encoding/json"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Response bodies come either flat or wrapped in {"data": {...}}; fields are looked up in a fixed priority order.

type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) fields {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}

	return f
}

type envelope struct {
	top  fields
	data fields
}

func decodeEnvelope(raw json.RawMessage) envelope {
	top := decodeFields(raw)

	return envelope{
		top:  top,
		data: decodeFields(top["data"]),
	}
}

func (f fields) str(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return s
}

// stringList returns the string elements of an array field. ok is false when the field is absent or not an array.
func (f fields) stringList(key string) ([]string, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}

	return result, true
}

func (f fields) boolean(key string) bool {
	raw, ok := f[key]
	if !ok {
		return false
	}

	var b bool
	_ = json.Unmarshal(raw, &b)

	return b
}

func firstNonEmpty(values ...string) string {
	idx := pie.FindFirstUsing(values, func(v string) bool {
		return strings.TrimSpace(v) != ""
	})
	if idx < 0 {
		return ""
	}

	return values[idx]
}
