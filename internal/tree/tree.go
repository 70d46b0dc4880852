// Package tree holds helpers for plain map[string]any state trees: deep
// cloning, layered merging, path lookups and copy-on-write updates.
package tree

import "reflect"

// Clone returns a deep copy of value. Maps and slices are rebuilt; every other
// value is copied as-is.
func Clone[T any](value T) T {
	cloned := cloneValue(reflect.ValueOf(&value).Elem())
	if cloned.IsValid() {
		if out, ok := cloned.Interface().(T); ok {
			return out
		}
	}
	var zero T
	return zero
}

// CloneMap is Clone specialised for state maps; nil input yields an empty map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return Clone(m)
}

// Merge composes trees ordered from strongest to weakest. Nested
// map[string]any values merge key by key; anything else from a stronger layer
// replaces the weaker value.
func Merge(layers ...map[string]any) map[string]any {
	if len(layers) == 0 {
		return map[string]any{}
	}
	merged := CloneMap(layers[len(layers)-1])
	for i := len(layers) - 2; i >= 0; i-- {
		merged = mergeMaps(layers[i], merged)
	}
	return merged
}

func mergeMaps(strong, weak map[string]any) map[string]any {
	out := make(map[string]any, len(strong)+len(weak))
	for key, value := range weak {
		out[key] = Clone(value)
	}
	for key, value := range strong {
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := out[key].(map[string]any)
		if strongIsMap && weakIsMap {
			out[key] = mergeMaps(strongMap, weakMap)
			continue
		}
		out[key] = Clone(value)
	}
	return out
}

// Lookup walks path through nested map[string]any values. ok is false when a
// segment is missing or an intermediate value is not an object.
func Lookup(root map[string]any, path []string) (any, bool) {
	var current any = root
	for _, key := range path {
		m, isMap := current.(map[string]any)
		if !isMap {
			return nil, false
		}
		next, exists := m[key]
		if !exists {
			return nil, false
		}
		current = next
	}
	return current, true
}

// SetIn returns a copy of root with value stored at path. Every map along the
// path is shallow-copied; siblings are shared with root. Missing or non-object
// intermediates are replaced by new maps.
func SetIn(root map[string]any, path []string, value any) map[string]any {
	if len(path) == 0 {
		if m, ok := value.(map[string]any); ok {
			return m
		}
		return shallow(root)
	}
	out := shallow(root)
	key := path[0]
	if len(path) == 1 {
		out[key] = value
		return out
	}
	child, _ := out[key].(map[string]any)
	out[key] = SetIn(child, path[1:], value)
	return out
}

// DeleteIn returns a copy of root without the value at path, sharing
// untouched siblings. Missing paths leave the copy unchanged.
func DeleteIn(root map[string]any, path []string) map[string]any {
	out := shallow(root)
	if len(path) == 0 {
		return out
	}
	key := path[0]
	if len(path) == 1 {
		delete(out, key)
		return out
	}
	child, ok := out[key].(map[string]any)
	if !ok {
		return out
	}
	out[key] = DeleteIn(child, path[1:])
	return out
}

// Equal reports whether a and b hold the same value. Comparable values use ==,
// everything else falls back to reflect.DeepEqual.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == tb && ta.Comparable() {
		switch reflect.ValueOf(a).Kind() {
		case reflect.Interface, reflect.Array, reflect.Struct:
		default:
			return a == b
		}
	}
	return reflect.DeepEqual(a, b)
}

func shallow(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for key, value := range m {
		out[key] = value
	}
	return out
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
