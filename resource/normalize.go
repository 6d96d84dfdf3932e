package resource

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/crmarques/restresource/faults"
)

// DecodeJSON decodes body into plain maps, slices and scalars. Integral
// numbers become int64, others float64. An empty body decodes to nil.
func DecodeJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "body is not valid JSON", err)
	}
	return Normalize(value)
}

func Normalize(value any) (any, error) {
	switch typed := value.(type) {
	case nil, bool, string, int64:
		return typed, nil
	case int:
		return int64(typed), nil
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return nil, faults.NewTypedError(faults.ValidationError, "payload contains non-finite float", nil)
		}
		return typed, nil
	case json.Number:
		if asInt, err := typed.Int64(); err == nil {
			return asInt, nil
		}
		asFloat, err := typed.Float64()
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, "payload contains invalid number", err)
		}
		return Normalize(asFloat)
	case []any:
		normalized := make([]any, len(typed))
		for idx, item := range typed {
			itemValue, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			normalized[idx] = itemValue
		}
		return normalized, nil
	case map[string]any:
		normalized := make(map[string]any, len(typed))
		for key, item := range typed {
			itemValue, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			normalized[key] = itemValue
		}
		return normalized, nil
	case *Instance:
		return Normalize(typed.Snapshot())
	}

	// Structs and typed maps go through a JSON round trip.
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "payload is not JSON encodable", err)
	}
	return DecodeJSON(encoded)
}

// Fields returns value as an object field map, reporting false for arrays and
// scalars.
func Fields(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case *Instance:
		if typed == nil {
			return nil, false
		}
		return typed.Snapshot(), true
	}
	return nil, false
}
