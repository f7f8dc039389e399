package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/formbuilder/internal/core/fieldtype"
)

// ParseOptionString decodes one stored option entry. The repository sometimes
// returns entries with a single trailing period appended; it is stripped before
// decoding. Blank or undecodable input yields nil.
func ParseOptionString(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	trimmed = strings.TrimSuffix(trimmed, ".")

	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil
	}
	return out
}

// normalizeOptions turns a raw options property into a list of decoded entries.
func normalizeOptions(p NodeProperty) []any {
	out := []any{}
	if p.Multiple() {
		for _, v := range p.Values {
			if s, ok := v.(string); ok {
				v = ParseOptionString(s)
			}
			if !isFalsy(v) {
				out = append(out, v)
			}
		}
		return out
	}

	switch v := p.Value.(type) {
	case string:
		if parsed := ParseOptionString(v); !isFalsy(parsed) {
			out = append(out, parsed)
		}
	case map[string]any, []any:
		out = append(out, v)
	}
	return out
}

// encodeOption serializes one option entry for the wire. Strings pass through.
// The boolean result is false for entries that must be dropped.
func encodeOption(v any) (string, bool) {
	if isFalsy(v) {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false
	}
	encoded := strings.TrimSuffix(buf.String(), "\n")
	if encoded == "" || encoded == "null" {
		return "", false
	}
	return encoded, true
}

// isFalsy matches the values a loosely typed caller treats as absent.
func isFalsy(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case bool:
		return !typed
	case string:
		return typed == ""
	case int:
		return typed == 0
	case int64:
		return typed == 0
	case float64:
		return typed == 0 || math.IsNaN(typed)
	default:
		return false
	}
}

// stringify renders a scalar or structured value as the repository stores it.
func stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	case map[string]any, []any:
		if encoded, ok := encodeOption(typed); ok {
			return encoded
		}
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

// ParseBool is the permissive boolean parser used for BOOLEAN wire properties:
// true and any casing of "true" are true, everything else is false.
func ParseBool(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(typed, "true")
	default:
		return false
	}
}

// ParsePropertyInput converts a value typed as text into what a property of d
// holds. Boolean properties go through ParseBool. String lists accept a JSON array
// or a comma separated list. Any other property keeps the text unless it is a
// JSON array. A nil d treats every property as unknown.
func ParsePropertyInput(d *fieldtype.Descriptor, name, raw string) any {
	var kind fieldtype.PropertyKind
	known := false
	if d != nil {
		if p, ok := d.Property(name); ok {
			kind, known = p.Kind, true
		}
	}

	trimmed := strings.TrimSpace(raw)
	switch {
	case known && kind == fieldtype.KindBoolean:
		return ParseBool(trimmed)
	case known && kind == fieldtype.KindStringList:
		if list, ok := decodeJSONList(trimmed); ok {
			return list
		}
		list := []any{}
		for _, part := range strings.Split(trimmed, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return list
	}
	if list, ok := decodeJSONList(trimmed); ok {
		return list
	}
	return raw
}

func decodeJSONList(s string) ([]any, bool) {
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}
	var list []any
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, false
	}
	return list, true
}
