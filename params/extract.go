package params

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/crmarques/restresource/faults"
)

const forbiddenMember = "hasOwnProperty"

var memberPathPattern = regexp.MustCompile(`^(\.[a-zA-Z_$][0-9a-zA-Z_$]*)+$`)

// Producer yields a parameter value at call time.
type Producer func() any

// Snapshotter is implemented by payloads that expose their current fields,
// such as resource instances.
type Snapshotter interface {
	Snapshot() map[string]any
}

// Merge returns a new map holding defaults overridden by overrides.
func Merge(defaults map[string]any, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// Extract resolves every declared parameter against payload. Action entries
// override defaults. Producers are invoked; strings starting with "@" are
// dotted paths into payload.
func Extract(payload any, actionSpec map[string]any, defaultSpec map[string]any) (map[string]any, error) {
	declared := Merge(defaultSpec, actionSpec)
	resolved := make(map[string]any, len(declared))
	for key, value := range declared {
		value = produce(value)

		reference, ok := value.(string)
		if !ok || !strings.HasPrefix(reference, "@") {
			resolved[key] = value
			continue
		}

		found, err := LookupDottedPath(payload, reference[1:])
		if err != nil {
			return nil, err
		}
		resolved[key] = found
	}
	return resolved, nil
}

func IsValidDottedPath(path string) bool {
	if path == "" || !memberPathPattern.MatchString("."+path) {
		return false
	}
	for _, member := range strings.Split(path, ".") {
		if member == forbiddenMember {
			return false
		}
	}
	return true
}

// LookupDottedPath walks path through nested maps. Missing or non-object
// intermediates yield nil.
func LookupDottedPath(payload any, path string) (any, error) {
	if !IsValidDottedPath(path) {
		return nil, faults.NewTypedError(
			faults.BadMemberPath,
			fmt.Sprintf("dotted member path %q is invalid", "@"+path),
			nil,
		)
	}

	current := payload
	for _, key := range strings.Split(path, ".") {
		fields := asFields(current)
		if fields == nil {
			return nil, nil
		}
		current = fields[key]
	}
	return current, nil
}

func produce(value any) any {
	switch typed := value.(type) {
	case Producer:
		return typed()
	case func() any:
		return typed()
	case func() string:
		return typed()
	}
	return value
}

func asFields(value any) map[string]any {
	switch typed := value.(type) {
	case map[string]any:
		return typed
	case Snapshotter:
		if typed == nil {
			return nil
		}
		return typed.Snapshot()
	}
	return nil
}
