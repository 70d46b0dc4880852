package statekit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/schema"
)

// Getter reads a value from the current state.
type Getter func() (any, error)

// Setter writes a value and returns the resulting state.
type Setter func(ctx context.Context, value any, opts ...SetOption) (*View, error)

// Method is a named operation bound to a manager.
type Method func(ctx context.Context, args ...any) (any, error)

// GetterFunc is a custom getter. The manager is passed as receiver.
type GetterFunc func(m *Manager) (any, error)

// SetterFunc is a custom setter.
type SetterFunc func(ctx context.Context, m *Manager, value any, opts ...SetOption) (*View, error)

// MethodFunc is a custom method.
type MethodFunc func(ctx context.Context, m *Manager, args ...any) (any, error)

// AccessorName builds the registry name of the accessor for path:
// verb + capitalized first segment, remaining segments joined by "_".
//
//	AccessorName("get", schema.Path{"level1", "level2"}) == "getLevel1_level2"
func AccessorName(verb string, path schema.Path) string {
	if len(path) == 0 {
		return verb
	}
	var b strings.Builder
	b.WriteString(verb)
	b.WriteString(capitalize(path[0]))
	for _, segment := range path[1:] {
		b.WriteByte('_')
		b.WriteString(segment)
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func (m *Manager) synthesize() (map[string]Getter, map[string]Setter) {
	getters := map[string]Getter{}
	setters := map[string]Setter{}
	for _, node := range m.schema.Root().Fields() {
		key := node.Key()
		path := node.Path()
		if m.cfg.dynamicGetters {
			getters[AccessorName("get", path)] = m.topGetter(key)
		}
		if m.cfg.dynamicSetters {
			setters[AccessorName("set", path)] = m.topSetter(key)
		}
		m.synthesizeNested(node, getters, setters)
	}
	return getters, setters
}

// synthesizeNested only walks declared object children; arrays and open
// subtrees get no nested accessors.
func (m *Manager) synthesizeNested(node *schema.Node, getters map[string]Getter, setters map[string]Setter) {
	for _, child := range node.Fields() {
		path := child.Path()
		if m.cfg.nestedGetters {
			getters[AccessorName("get", path)] = m.nestedGetter(path)
		}
		if m.cfg.nestedSetters {
			setters[AccessorName("set", path)] = m.nestedSetter(path)
		}
		m.synthesizeNested(child, getters, setters)
	}
}

func (m *Manager) topGetter(key string) Getter {
	return func() (any, error) {
		return m.State().Get(key), nil
	}
}

func (m *Manager) topSetter(key string) Setter {
	return func(ctx context.Context, value any, opts ...SetOption) (*View, error) {
		return m.SetState(ctx, Patch{key: value}, opts...)
	}
}

func (m *Manager) nestedGetter(path schema.Path) Getter {
	return func() (any, error) {
		value, _ := m.State().Lookup(path...)
		return value, nil
	}
}

// nestedSetter rebuilds the top-level ancestor with value written at path
// and hands it to SetState, so only that branch changes identity.
func (m *Manager) nestedSetter(path schema.Path) Setter {
	root := path[0]
	rest := path[1:].Clone()
	return func(ctx context.Context, value any, opts ...SetOption) (*View, error) {
		update := UpdateFunc(func(prev *View) (Patch, error) {
			ancestor, _ := prev.raw()[root].(map[string]any)
			return Patch{root: tree.SetIn(ancestor, rest, plain(value))}, nil
		})
		return m.SetState(ctx, update, opts...)
	}
}

func (m *Manager) bindGetter(fn GetterFunc) Getter {
	return func() (any, error) { return fn(m) }
}

func (m *Manager) bindSetter(fn SetterFunc) Setter {
	return func(ctx context.Context, value any, opts ...SetOption) (*View, error) {
		return fn(ctx, m, value, opts...)
	}
}

func (m *Manager) bindMethod(fn MethodFunc) Method {
	return func(ctx context.Context, args ...any) (any, error) {
		return fn(ctx, m, args...)
	}
}

// AddCustomGetters registers getters that override synthesized ones of the
// same name. They survive a later Init.
func (m *Manager) AddCustomGetters(getters map[string]GetterFunc) {
	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	for name, fn := range getters {
		if fn == nil {
			continue
		}
		m.customGetters[name] = fn
		m.getters[name] = m.bindGetter(fn)
	}
}

// AddCustomSetters registers setters that override synthesized ones.
func (m *Manager) AddCustomSetters(setters map[string]SetterFunc) {
	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	for name, fn := range setters {
		if fn == nil {
			continue
		}
		m.customSetters[name] = fn
		m.setters[name] = m.bindSetter(fn)
	}
}

// AddCustomMethods registers methods.
func (m *Manager) AddCustomMethods(methods map[string]MethodFunc) {
	m.accessMu.Lock()
	defer m.accessMu.Unlock()
	for name, fn := range methods {
		if fn == nil {
			continue
		}
		m.customMethods[name] = fn
		m.methods[name] = m.bindMethod(fn)
	}
}

// Getter returns the getter registered under name.
func (m *Manager) Getter(name string) (Getter, bool) {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	fn, ok := m.getters[name]
	return fn, ok
}

// Setter returns the setter registered under name.
func (m *Manager) Setter(name string) (Setter, bool) {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	fn, ok := m.setters[name]
	return fn, ok
}

// Method returns the method registered under name.
func (m *Manager) Method(name string) (Method, bool) {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	fn, ok := m.methods[name]
	return fn, ok
}

// Get runs the getter registered under name.
func (m *Manager) Get(name string) (any, error) {
	fn, ok := m.Getter(name)
	if !ok {
		return nil, fmt.Errorf("%w: getter %q", ErrAccessorNotFound, name)
	}
	return fn()
}

// Set runs the setter registered under name.
func (m *Manager) Set(ctx context.Context, name string, value any, opts ...SetOption) (*View, error) {
	fn, ok := m.Setter(name)
	if !ok {
		return nil, fmt.Errorf("%w: setter %q", ErrAccessorNotFound, name)
	}
	return fn(ctx, value, opts...)
}

// Call runs the method registered under name.
func (m *Manager) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := m.Method(name)
	if !ok {
		return nil, fmt.Errorf("%w: method %q", ErrAccessorNotFound, name)
	}
	return fn(ctx, args...)
}

// GetterNames lists registered getter names in sorted order.
func (m *Manager) GetterNames() []string {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	return sortedNames(m.getters)
}

// SetterNames lists registered setter names in sorted order.
func (m *Manager) SetterNames() []string {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	return sortedNames(m.setters)
}

// MethodNames lists registered method names in sorted order.
func (m *Manager) MethodNames() []string {
	m.accessMu.RLock()
	defer m.accessMu.RUnlock()
	return sortedNames(m.methods)
}

func sortedNames[V any](entries map[string]V) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
