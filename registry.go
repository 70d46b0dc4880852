package statekit

import (
	"fmt"
	"sort"
	"sync"
)

// Registry indexes managers by id. Registering an id twice replaces the
// earlier manager.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*Manager
}

// DefaultRegistry receives every manager created without WithRegistry.
var DefaultRegistry = NewRegistry()

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: map[string]*Manager{}}
}

// Register stores m under its id.
func (r *Registry) Register(m *Manager) {
	if r == nil || m == nil {
		return
	}
	r.mu.Lock()
	previous, exists := r.managers[m.id]
	r.managers[m.id] = m
	r.mu.Unlock()
	if exists && previous != m {
		m.warn("manager id already registered, replacing", nil)
	}
}

// Lookup returns the manager registered under id.
func (r *Registry) Lookup(id string) (*Manager, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrManagerNotFound, id)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrManagerNotFound, id)
	}
	return m, nil
}

// Unregister drops id.
func (r *Registry) Unregister(id string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.managers, id)
	r.mu.Unlock()
}

// unregisterManager drops m only if it still owns its id.
func (r *Registry) unregisterManager(m *Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.managers[m.id] == m {
		delete(r.managers, m.id)
	}
}

// IDs lists registered ids in sorted order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.managers))
	for id := range r.managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear empties the registry.
func (r *Registry) Clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.managers = map[string]*Manager{}
	r.mu.Unlock()
}

// GetManagerByID looks id up in DefaultRegistry.
func GetManagerByID(id string) (*Manager, error) {
	return DefaultRegistry.Lookup(id)
}

// Clear empties DefaultRegistry.
func Clear() {
	DefaultRegistry.Clear()
}
