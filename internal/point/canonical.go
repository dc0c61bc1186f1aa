package point

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for points.
//
// Differences from json.Marshal:
//  1. object keys sorted by UTF-16 code units
//  2. no HTML escaping; U+2028 and U+2029 are written literally
//  3. strings are NFC normalized
//  4. coordinates are fixed-point integers (degrees * 1e7), never floats
//
// Accepted inputs: MapPoint, []MapPoint, and trees of map[string]any and
// []any whose leaves are string, int64, bool or MapPoint.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case MapPoint, map[string]any, []any:
		return marshalValue(val)
	case []MapPoint:
		arr := make([]any, len(val))
		for i, p := range val {
			obj, err := canonicalPoint(p)
			if err != nil {
				return nil, fmt.Errorf("points[%d]: %w", i, err)
			}
			arr[i] = obj
		}
		return marshalValue(arr)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// E7 converts degrees to the fixed-point representation used in canonical
// form.
func E7(deg float64) int64 {
	return int64(math.Round(deg * 1e7))
}

func canonicalPoint(p MapPoint) (map[string]any, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownType, p.Type)
	}
	if err := p.Location.Validate(); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":   p.ID,
		"type": p.Type.String(),
		"location": map[string]any{
			"latitude_e7":  E7(p.Location.Latitude),
			"longitude_e7": E7(p.Location.Longitude),
		},
	}, nil
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case string:
		writeString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case MapPoint:
		obj, err := canonicalPoint(val)
		if err != nil {
			return err
		}
		return writeValue(buf, obj)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		// CRITICAL: RFC 8785 orders by UTF-16 code units, not UTF-8 bytes.
		slices.SortFunc(keys, compareUTF16)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			if err := writeValue(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeString escapes only what RFC 8785 requires: quote, backslash and
// control characters.
func writeString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
