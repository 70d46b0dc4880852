package statekit

import (
	"context"
	"fmt"
)

// ProtectedNamespaces lists names that AddNamespacedMethods rejects because
// they clash with manager internals.
var ProtectedNamespaces = []string{
	"state",
	"setters",
	"getters",
	"methods",
	"initOptions",
	"_schema",
	"_state",
	"_bindToLocalStorage",
	"windowManager",
	"eventListeners",
}

func isProtectedNamespace(name string) bool {
	for _, protected := range ProtectedNamespaces {
		if name == protected {
			return true
		}
	}
	return false
}

// Namespace is a named group of methods bound to one manager.
type Namespace struct {
	name    string
	methods map[string]Method
}

// Name returns the namespace name.
func (n Namespace) Name() string { return n.name }

// Names lists the methods in the namespace in sorted order.
func (n Namespace) Names() []string { return sortedNames(n.methods) }

// Method returns the method registered under name.
func (n Namespace) Method(name string) (Method, bool) {
	fn, ok := n.methods[name]
	return fn, ok
}

// Call runs the method registered under name.
func (n Namespace) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := n.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrAccessorNotFound, n.name, name)
	}
	return fn(ctx, args...)
}

// AddNamespacedMethods groups methods under namespaces. Methods added to an
// existing namespace are merged into it. Nothing is registered when any
// namespace name is protected.
func (m *Manager) AddNamespacedMethods(namespaces map[string]map[string]MethodFunc) error {
	for name := range namespaces {
		if isProtectedNamespace(name) {
			return &PathError{Op: "namespace", Path: []string{name}, Err: ErrProtectedNamespace}
		}
	}

	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	for name, methods := range namespaces {
		bound := m.namespaces[name]
		if bound == nil {
			bound = make(map[string]Method, len(methods))
			m.namespaces[name] = bound
		}
		for method, fn := range methods {
			if fn == nil {
				continue
			}
			bound[method] = m.bindMethod(fn)
		}
	}
	return nil
}

// Namespace returns a snapshot of the methods registered under name.
func (m *Manager) Namespace(name string) (Namespace, bool) {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	methods, ok := m.namespaces[name]
	if !ok {
		return Namespace{}, false
	}
	snapshot := make(map[string]Method, len(methods))
	for key, fn := range methods {
		snapshot[key] = fn
	}
	return Namespace{name: name, methods: snapshot}, true
}

// NamespaceNames lists registered namespaces in sorted order.
func (m *Manager) NamespaceNames() []string {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	return sortedNames(m.namespaces)
}
