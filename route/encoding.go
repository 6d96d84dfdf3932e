package route

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// EncodeSegment percent-encodes a value for use inside a path segment. It keeps
// @ : $ , & = + literal and encodes spaces as %20.
func EncodeSegment(value any) string {
	encoded := EncodeQueryValue(value, true)
	encoded = strings.ReplaceAll(encoded, "%26", "&")
	encoded = strings.ReplaceAll(encoded, "%3D", "=")
	encoded = strings.ReplaceAll(encoded, "%2B", "+")
	return encoded
}

// EncodeQueryValue percent-encodes a value for a query string. Spaces become
// "+" unless pctEncodeSpaces is set.
func EncodeQueryValue(value any, pctEncodeSpaces bool) string {
	encoded := encodeComponent(Stringify(value))
	encoded = strings.ReplaceAll(encoded, "%40", "@")
	encoded = strings.ReplaceAll(encoded, "%3A", ":")
	encoded = strings.ReplaceAll(encoded, "%24", "$")
	encoded = strings.ReplaceAll(encoded, "%2C", ",")
	if pctEncodeSpaces {
		return encoded
	}
	return strings.ReplaceAll(encoded, "%20", "+")
}

// BuildQuery renders query parameters with sorted keys. Nil values are
// dropped, slices repeat the key, and maps are JSON encoded.
func BuildQuery(query map[string]any) string {
	if len(query) == 0 {
		return ""
	}

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := query[key]
		if value == nil {
			continue
		}

		values, isList := value.([]any)
		if !isList {
			values = []any{value}
		}
		for _, item := range values {
			if item == nil {
				continue
			}
			if nested, ok := item.(map[string]any); ok {
				encoded, err := json.Marshal(nested)
				if err != nil {
					continue
				}
				item = string(encoded)
			}
			parts = append(parts, EncodeQueryValue(key, false)+"="+EncodeQueryValue(item, false))
		}
	}
	return strings.Join(parts, "&")
}

// Stringify renders scalar parameter values the way they appear in a URL.
func Stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

func encodeComponent(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for idx := 0; idx < len(value); idx++ {
		current := value[idx]
		if isUnreserved(current) {
			builder.WriteByte(current)
			continue
		}
		builder.WriteByte('%')
		builder.WriteByte(upperHex[current>>4])
		builder.WriteByte(upperHex[current&0x0F])
	}
	return builder.String()
}

func isUnreserved(value byte) bool {
	switch {
	case value >= 'a' && value <= 'z', value >= 'A' && value <= 'Z', value >= '0' && value <= '9':
		return true
	}
	switch value {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
