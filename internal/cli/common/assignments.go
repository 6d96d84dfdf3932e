package common

import "strings"

// ParseParams merges repeated key=value lists into one params map. Dotted
// keys build nested objects, later assignments win.
func ParseParams(values []string) (map[string]any, error) {
	output := map[string]any{}
	for _, raw := range values {
		if err := ApplyDottedAssignmentsObject(output, raw); err != nil {
			return nil, err
		}
	}
	return output, nil
}

func ParseDottedAssignmentsObject(raw string) (map[string]any, error) {
	output := map[string]any{}
	if err := ApplyDottedAssignmentsObject(output, raw); err != nil {
		return nil, err
	}
	return output, nil
}

func ApplyDottedAssignmentsObject(target map[string]any, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ValidationError("invalid assignment list: expected key=value", nil)
	}

	for _, item := range strings.Split(trimmed, ",") {
		part := strings.TrimSpace(item)
		if part == "" {
			return ValidationError("invalid assignment list: empty item", nil)
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return ValidationError("invalid assignment list: expected key=value", nil)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return ValidationError("invalid assignment list: key must not be empty", nil)
		}
		if err := setDottedValue(target, key, strings.TrimSpace(value)); err != nil {
			return err
		}
	}

	return nil
}

func setDottedValue(target map[string]any, dottedKey string, value string) error {
	segments := strings.Split(dottedKey, ".")
	current := target
	for idx, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return ValidationError("invalid assignment key: empty path segment", nil)
		}
		if idx == len(segments)-1 {
			if _, isObject := current[segment].(map[string]any); isObject {
				return ValidationError("invalid assignment list: key path conflicts with object value", nil)
			}
			current[segment] = value
			return nil
		}

		next, exists := current[segment]
		if !exists {
			child := map[string]any{}
			current[segment] = child
			current = child
			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return ValidationError("invalid assignment list: key path conflicts with scalar value", nil)
		}
		current = child
	}

	return nil
}
