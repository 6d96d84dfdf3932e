package cache

import (
	"encoding/json"
	"fmt"
)

// IDField is the snapshot field used as the entity identifier.
const IDField = "id"

// Adapter is the keyed store of entity snapshots consulted before the network.
// Implementations own storage and eviction; callers only Get and Set.
// Both calls must return without blocking on remote I/O.
type Adapter interface {
	// Get returns the snapshot stored for id and params. Snapshots are
	// map[string]any for entities and []any for collections.
	Get(id any, params map[string]any) (any, bool)
	// Set stores a server-confirmed snapshot. Entity snapshots are keyed by
	// their IDField.
	Set(snapshot any, params map[string]any)
}

// Invalidator is implemented by adapters that let collaborators drop entries.
type Invalidator interface {
	Invalidate(id any, params map[string]any)
	Clear()
}

// Provider resolves the adapter bound to a cache namespace.
type Provider interface {
	Namespace(name string) Adapter
}

// IDOf extracts the identifier of an entity snapshot. Collections and scalars
// have no identifier.
func IDOf(snapshot any) (any, bool) {
	fields, ok := snapshot.(map[string]any)
	if !ok {
		return nil, false
	}
	id, ok := fields[IDField]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// Key renders a stable key for id and params. The IDField entry of params is
// left out since id already carries it, so {id: 7} and {id: "7"} share a key.
func Key(id any, params map[string]any) string {
	idPart := ""
	if id != nil {
		idPart = fmt.Sprint(id)
	}

	filtered := make(map[string]any, len(params))
	for key, value := range params {
		if key == IDField || value == nil {
			continue
		}
		filtered[key] = value
	}

	encoded, err := json.Marshal(filtered)
	if err != nil {
		encoded = []byte(fmt.Sprintf("%v", filtered))
	}
	return idPart + "|" + string(encoded)
}

// StorageKey returns the key a snapshot is stored under by Set. Entity
// snapshots use their IDField, collections use params alone. Entities
// without an id and scalars are not cacheable.
func StorageKey(snapshot any, params map[string]any) (string, bool) {
	switch snapshot.(type) {
	case []any:
		return Key(nil, params), true
	case map[string]any:
		id, ok := IDOf(snapshot)
		if !ok {
			return "", false
		}
		return Key(id, params), true
	}
	return "", false
}

// Clone copies a snapshot one level deep so stored entries do not alias the
// caller's maps.
func Clone(snapshot any) any {
	switch typed := snapshot.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(typed))
		for key, value := range typed {
			cloned[key] = value
		}
		return cloned
	case []any:
		cloned := make([]any, len(typed))
		for idx, item := range typed {
			cloned[idx] = Clone(item)
		}
		return cloned
	}
	return snapshot
}
