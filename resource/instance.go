package resource

import (
	"encoding/json"
	"strings"
	"sync"
)

// Observer receives a copy of the fields after every change.
type Observer func(snapshot map[string]any)

// Target is the caller-visible result of an action: an Instance for object
// actions, a Collection for array actions.
type Target interface {
	Resolved() bool
	Promise() *Promise
}

// Instance is an identity-stable cell holding one remote entity snapshot.
// Updates replace its fields in place, so holders of the pointer observe them.
type Instance struct {
	mu        sync.RWMutex
	fields    map[string]any
	resolved  bool
	promise   *Promise
	observers observerSet[map[string]any]
}

var _ Target = (*Instance)(nil)

func NewInstance(fields map[string]any) *Instance {
	instance := &Instance{fields: map[string]any{}}
	copyFields(instance.fields, fields)
	return instance
}

// Snapshot returns a shallow copy of the current fields.
func (i *Instance) Snapshot() map[string]any {
	if i == nil {
		return nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return cloneFields(i.fields)
}

func (i *Instance) Get(key string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	value, ok := i.fields[key]
	return value, ok
}

func (i *Instance) Set(key string, value any) {
	i.mu.Lock()
	i.fields[key] = value
	snapshot := cloneFields(i.fields)
	i.mu.Unlock()

	i.observers.notify(snapshot)
}

func (i *Instance) Delete(key string) {
	i.mu.Lock()
	delete(i.fields, key)
	snapshot := cloneFields(i.fields)
	i.mu.Unlock()

	i.observers.notify(snapshot)
}

// Replace clears every field and copies src in, skipping "$$"-prefixed keys.
// The instance keeps its identity.
func (i *Instance) Replace(src map[string]any) {
	i.mu.Lock()
	clear(i.fields)
	copyFields(i.fields, src)
	snapshot := cloneFields(i.fields)
	i.mu.Unlock()

	i.observers.notify(snapshot)
}

func (i *Instance) Resolved() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.resolved
}

func (i *Instance) Promise() *Promise {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.promise
}

// MarkPending attaches the request promise and clears the settled flag.
func (i *Instance) MarkPending(promise *Promise) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.promise = promise
	i.resolved = false
}

func (i *Instance) MarkResolved() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.resolved = true
}

// Subscribe registers fn for change notifications until cancel is called.
func (i *Instance) Subscribe(fn Observer) (cancel func()) {
	return i.observers.add(fn)
}

func (i *Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Snapshot())
}

func copyFields(dst map[string]any, src map[string]any) {
	for key, value := range src {
		if strings.HasPrefix(key, "$$") {
			continue
		}
		dst[key] = value
	}
}

func cloneFields(src map[string]any) map[string]any {
	cloned := make(map[string]any, len(src))
	for key, value := range src {
		cloned[key] = value
	}
	return cloned
}

type observerSet[T any] struct {
	mu        sync.Mutex
	next      uint64
	observers map[uint64]func(T)
}

func (s *observerSet[T]) add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = map[uint64]func(T){}
	}
	id := s.next
	s.next++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *observerSet[T]) notify(value T) {
	s.mu.Lock()
	observers := make([]func(T), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(value)
	}
}
