package statekit

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/schema"
)

// View is a read window over live state at one declared object depth.
// Children declared as objects are wrapped on read; arrays, open objects and
// undeclared keys are returned as the underlying values. While write
// protection is enabled every write through a View fails with
// ErrImmutableState.
type View struct {
	data      map[string]any
	node      *schema.Node
	path      schema.Path
	protected bool
}

func newView(data map[string]any, node *schema.Node, path schema.Path, protected bool) *View {
	if data == nil {
		data = map[string]any{}
	}
	return &View{data: data, node: node, path: path, protected: protected}
}

// Get returns the value stored under key, or nil when absent.
func (v *View) Get(key string) any {
	if v == nil {
		return nil
	}
	value, ok := v.data[key]
	if !ok {
		return nil
	}
	return v.wrap(key, value)
}

// Lookup walks keys below the view. Declared object values come back as
// *View; ok is false when a segment is missing.
func (v *View) Lookup(keys ...string) (any, bool) {
	if v == nil {
		return nil, false
	}
	current := v
	for i, key := range keys {
		value, ok := current.data[key]
		if !ok {
			return nil, false
		}
		wrapped := current.wrap(key, value)
		if i == len(keys)-1 {
			return wrapped, true
		}
		next, isView := wrapped.(*View)
		if !isView {
			m, isMap := value.(map[string]any)
			if !isMap {
				return nil, false
			}
			return tree.Lookup(m, keys[i+1:])
		}
		current = next
	}
	return current, true
}

// Has reports whether key is present.
func (v *View) Has(key string) bool {
	if v == nil {
		return false
	}
	_, ok := v.data[key]
	return ok
}

// Keys lists present keys: declared keys in declaration order first, then
// any extra keys sorted.
func (v *View) Keys() []string {
	if v == nil {
		return nil
	}
	keys := make([]string, 0, len(v.data))
	declared := make(map[string]struct{}, len(v.data))
	for _, key := range v.node.Keys() {
		if _, ok := v.data[key]; ok {
			keys = append(keys, key)
			declared[key] = struct{}{}
		}
	}
	var extra []string
	for key := range v.data {
		if _, ok := declared[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Len returns the number of present keys.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.data)
}

// Path returns the root-relative path of the view.
func (v *View) Path() schema.Path {
	if v == nil {
		return nil
	}
	return v.path.Clone()
}

// ToMap returns a detached deep copy of the viewed values.
func (v *View) ToMap() map[string]any {
	if v == nil {
		return nil
	}
	return tree.CloneMap(v.data)
}

// Set stores value under key. It fails while write protection is enabled.
func (v *View) Set(key string, value any) error {
	if err := v.guard("set", v.path.Append(key)); err != nil {
		return err
	}
	v.data[key] = plain(value)
	return nil
}

// Delete removes key. It fails while write protection is enabled.
func (v *View) Delete(key string) error {
	if err := v.guard("delete", v.path.Append(key)); err != nil {
		return err
	}
	delete(v.data, key)
	return nil
}

// SetIn stores value at path below the view, creating intermediate objects.
// It fails while write protection is enabled.
func (v *View) SetIn(path schema.Path, value any) error {
	if len(path) == 0 {
		return &PathError{Op: "set", Path: v.Path(), Err: fmt.Errorf("statekit: empty path")}
	}
	full := v.Path()
	full = append(full, path...)
	if err := v.guard("set", full); err != nil {
		return err
	}
	current := v.data
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = plain(value)
	return nil
}

// MarshalJSON encodes the viewed values.
func (v *View) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v.data)
}

func (v *View) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", v.data)
	}
	return string(raw)
}

func (v *View) guard(op string, path schema.Path) error {
	if v.protected {
		return &PathError{Op: op, Path: path, Err: ErrImmutableState}
	}
	return nil
}

func (v *View) wrap(key string, value any) any {
	child, declared := v.node.Child(key)
	if !declared || !child.IsObject() || child.IsOpen() {
		return value
	}
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	return &View{data: m, node: child, path: v.path.Append(key), protected: v.protected}
}

func (v *View) raw() map[string]any {
	if v == nil {
		return nil
	}
	return v.data
}

// plain converts views back into detached maps so they can be stored.
func plain(value any) any {
	switch typed := value.(type) {
	case *View:
		if typed == nil {
			return nil
		}
		return tree.CloneMap(typed.data)
	case Patch:
		return plainMap(typed)
	case map[string]any:
		return plainMap(typed)
	default:
		return value
	}
}

func plainMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = plain(value)
	}
	return out
}
