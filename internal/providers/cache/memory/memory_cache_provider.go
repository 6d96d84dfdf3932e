package memory

import (
	"sync"

	"github.com/crmarques/restresource/cache"
)

var _ cache.Provider = (*Provider)(nil)
var _ cache.Adapter = (*Adapter)(nil)
var _ cache.Invalidator = (*Adapter)(nil)

// Provider hands out one in-process adapter per namespace.
type Provider struct {
	mu         sync.Mutex
	namespaces map[string]*Adapter
}

func NewProvider() *Provider {
	return &Provider{namespaces: map[string]*Adapter{}}
}

func (p *Provider) Namespace(name string) cache.Adapter {
	return p.Adapter(name)
}

// Adapter returns the concrete adapter so callers can reach Len and Clear.
func (p *Provider) Adapter(name string) *Adapter {
	p.mu.Lock()
	defer p.mu.Unlock()

	adapter, ok := p.namespaces[name]
	if !ok {
		adapter = NewAdapter()
		p.namespaces[name] = adapter
	}
	return adapter
}

type Adapter struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewAdapter() *Adapter {
	return &Adapter{entries: map[string]any{}}
}

func (a *Adapter) Get(id any, params map[string]any) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snapshot, ok := a.entries[cache.Key(id, params)]
	if !ok {
		return nil, false
	}
	return cache.Clone(snapshot), true
}

func (a *Adapter) Set(snapshot any, params map[string]any) {
	key, ok := cache.StorageKey(snapshot, params)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[key] = cache.Clone(snapshot)
}

func (a *Adapter) Invalidate(id any, params map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.entries, cache.Key(id, params))
}

func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.entries)
}

func (a *Adapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}
