package resource

import (
	"encoding/json"
	"sync"
)

// Collection is the identity-stable result of an array action.
type Collection struct {
	mu        sync.RWMutex
	items     []*Instance
	resolved  bool
	promise   *Promise
	observers observerSet[[]*Instance]
}

var _ Target = (*Collection)(nil)

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) Items() []*Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Instance(nil), c.items...)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Replace drops the current items and installs one fresh instance per
// element of values.
func (c *Collection) Replace(values []map[string]any) {
	items := make([]*Instance, 0, len(values))
	for _, value := range values {
		items = append(items, NewInstance(value))
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	c.observers.notify(append([]*Instance(nil), items...))
}

func (c *Collection) Snapshot() []map[string]any {
	items := c.Items()
	snapshots := make([]map[string]any, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, item.Snapshot())
	}
	return snapshots
}

func (c *Collection) Resolved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved
}

func (c *Collection) Promise() *Promise {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.promise
}

func (c *Collection) MarkPending(promise *Promise) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promise = promise
	c.resolved = false
}

func (c *Collection) MarkResolved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolved = true
}

func (c *Collection) Subscribe(fn func(items []*Instance)) (cancel func()) {
	return c.observers.add(fn)
}

func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}
