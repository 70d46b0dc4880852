// Package schema describes the declared shape of a state tree.
//
// A Schema is built once from a plain value tree and is immutable afterwards.
// Object levels keep their key order so path derivation, diffing and event
// emission are deterministic. Ordered input comes from Fields literals or from
// YAML/JSON documents; plain maps are sorted by key.
package schema

import (
	"reflect"
	"sort"
)

// Kind classifies a declared schema value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Field is a single ordered key/value entry of an object level.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered object literal, e.g.
//
//	schema.Fields{
//		{"level1", schema.Fields{{"level2", schema.Fields{{"level3", 0}}}, {"level2Val", ""}}},
//	}
type Fields []Field

// Schema is the validated, immutable shape of a state tree.
type Schema struct {
	root *Node
}

// Node is one declared position in the schema.
type Node struct {
	key    string
	path   Path
	kind   Kind
	value  any
	fields []*Node
	index  map[string]*Node
}

// New validates value and builds a Schema from it. value must be an object:
// Fields, map[string]any or any map keyed by strings.
func New(value any) (*Schema, error) {
	if value == nil {
		return &Schema{root: &Node{kind: KindObject, path: Path{}, index: map[string]*Node{}}}, nil
	}
	b := builder{}
	root, err := b.build("", Path{}, reflect.ValueOf(value))
	if err != nil {
		return nil, err
	}
	if root.kind != KindObject {
		return nil, invalid(Path{}, "root must be an object, got %s", root.kind)
	}
	for _, reserved := range ReservedKeys {
		if _, ok := root.index[reserved]; ok {
			return nil, &PathError{Op: "schema", Path: Path{reserved}, Err: ErrReservedKey}
		}
	}
	return &Schema{root: root}, nil
}

// MustNew is like New but panics on error. Intended for package-level schemas.
func MustNew(value any) *Schema {
	s, err := New(value)
	if err != nil {
		panic(err)
	}
	return s
}

// Root returns the root object node.
func (s *Schema) Root() *Node {
	if s == nil {
		return nil
	}
	return s.root
}

// Keys returns the top-level keys in declaration order.
func (s *Schema) Keys() []string {
	return s.Root().Keys()
}

// Field returns the top-level node for key.
func (s *Schema) Field(key string) (*Node, bool) {
	return s.Root().Child(key)
}

// Lookup walks path from the root and returns the declared node.
func (s *Schema) Lookup(path Path) (*Node, bool) {
	node := s.Root()
	if node == nil {
		return nil, false
	}
	for _, key := range path {
		next, ok := node.Child(key)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Defaults returns a fresh state tree holding the declared values.
func (s *Schema) Defaults() map[string]any {
	out, _ := s.Root().Default().(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// Key returns the last path segment of the node ("" for the root).
func (n *Node) Key() string { return n.key }

// Path returns a copy of the node's root-relative path.
func (n *Node) Path() Path { return n.path.Clone() }

// Kind returns the declared kind.
func (n *Node) Kind() Kind { return n.kind }

// IsObject reports whether the node declares a nested object.
func (n *Node) IsObject() bool { return n != nil && n.kind == KindObject }

// IsOpen reports whether the node is an object declared without keys. Open
// objects are free-form bags: nothing below them is wrapped or diffed.
func (n *Node) IsOpen() bool { return n.IsObject() && len(n.fields) == 0 }

// Fields returns the child nodes in declaration order.
func (n *Node) Fields() []*Node {
	if n == nil || len(n.fields) == 0 {
		return nil
	}
	return append([]*Node(nil), n.fields...)
}

// Keys returns the child keys in declaration order.
func (n *Node) Keys() []string {
	if n == nil || len(n.fields) == 0 {
		return nil
	}
	keys := make([]string, len(n.fields))
	for i, child := range n.fields {
		keys[i] = child.key
	}
	return keys
}

// Child returns the declared child for key.
func (n *Node) Child(key string) (*Node, bool) {
	if n == nil || n.index == nil {
		return nil, false
	}
	child, ok := n.index[key]
	return child, ok
}

// Default returns a detached copy of the declared value. Objects are returned
// as map[string]any.
func (n *Node) Default() any {
	if n == nil {
		return nil
	}
	if n.kind == KindObject {
		out := make(map[string]any, len(n.fields))
		for _, child := range n.fields {
			out[child.key] = child.Default()
		}
		return out
	}
	return cloneLeaf(reflect.ValueOf(n.value))
}

// ref identifies a container on the current walk. Slices are keyed by
// backing array and length, since a shorter sub-slice of an ancestor does
// not contain it.
type ref struct {
	ptr uintptr
	len int
}

type builder struct {
	ancestors []ref
}

func refOf(v reflect.Value) ref {
	if v.Kind() == reflect.Map {
		return ref{ptr: v.Pointer(), len: -1}
	}
	return ref{ptr: v.Pointer(), len: v.Len()}
}

func (b *builder) build(key string, path Path, v reflect.Value) (*Node, error) {
	node := &Node{key: key, path: path}
	if !v.IsValid() {
		node.kind = KindNull
		return node, nil
	}
	if fields, ok := v.Interface().(Fields); ok {
		return b.buildFields(node, fields)
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			node.kind = KindNull
			return node, nil
		}
		if v.Kind() == reflect.Pointer {
			return nil, invalid(path, "pointer values are not supported")
		}
		return b.build(key, path, v.Elem())
	case reflect.Func:
		return nil, invalid(path, "function values are not allowed")
	case reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128, reflect.Struct:
		return nil, invalid(path, "unsupported value of type %s", v.Type())
	case reflect.Bool:
		node.kind = KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		node.kind = KindNumber
	case reflect.String:
		node.kind = KindString
	case reflect.Slice, reflect.Array:
		if err := b.checkArray(path, v); err != nil {
			return nil, err
		}
		node.kind = KindArray
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, invalid(path, "object keys must be strings, got %s", v.Type().Key())
		}
		return b.buildMap(node, v)
	default:
		return nil, invalid(path, "unsupported value of type %s", v.Type())
	}
	node.value = v.Interface()
	return node, nil
}

func (b *builder) buildFields(node *Node, fields Fields) (*Node, error) {
	node.kind = KindObject
	node.index = make(map[string]*Node, len(fields))
	if len(fields) > 0 {
		ptr := refOf(reflect.ValueOf(fields))
		if b.seen(ptr) {
			return nil, invalid(node.path, "circular reference")
		}
		b.ancestors = append(b.ancestors, ptr)
		defer func() { b.ancestors = b.ancestors[:len(b.ancestors)-1] }()
	}
	for _, field := range fields {
		if _, dup := node.index[field.Key]; dup {
			return nil, invalid(node.path.Append(field.Key), "duplicate key")
		}
		child, err := b.build(field.Key, node.path.Append(field.Key), reflect.ValueOf(field.Value))
		if err != nil {
			return nil, err
		}
		node.fields = append(node.fields, child)
		node.index[field.Key] = child
	}
	return node, nil
}

func (b *builder) buildMap(node *Node, v reflect.Value) (*Node, error) {
	if v.IsNil() {
		node.kind = KindNull
		return node, nil
	}
	ptr := refOf(v)
	if b.seen(ptr) {
		return nil, invalid(node.path, "circular reference")
	}
	b.ancestors = append(b.ancestors, ptr)
	defer func() { b.ancestors = b.ancestors[:len(b.ancestors)-1] }()

	keys := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		keys = append(keys, iter.Key().String())
	}
	sort.Strings(keys)

	node.kind = KindObject
	node.index = make(map[string]*Node, len(keys))
	for _, key := range keys {
		child, err := b.build(key, node.path.Append(key), v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key())))
		if err != nil {
			return nil, err
		}
		node.fields = append(node.fields, child)
		node.index[key] = child
	}
	return node, nil
}

// checkArray rejects arrays that reach themselves or hold functions. Array
// contents are never part of the schema shape.
func (b *builder) checkArray(path Path, v reflect.Value) error {
	if v.Kind() == reflect.Slice {
		if v.IsNil() || v.Len() == 0 {
			return nil
		}
		ptr := refOf(v)
		if b.seen(ptr) {
			return invalid(path, "circular reference")
		}
		b.ancestors = append(b.ancestors, ptr)
		defer func() { b.ancestors = b.ancestors[:len(b.ancestors)-1] }()
	}
	for i := 0; i < v.Len(); i++ {
		if err := b.checkOpaque(path, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) checkOpaque(path Path, v reflect.Value) error {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Func:
		return invalid(path, "function values are not allowed")
	case reflect.Slice, reflect.Array:
		return b.checkArray(path, v)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		ptr := refOf(v)
		if b.seen(ptr) {
			return invalid(path, "circular reference")
		}
		b.ancestors = append(b.ancestors, ptr)
		defer func() { b.ancestors = b.ancestors[:len(b.ancestors)-1] }()
		iter := v.MapRange()
		for iter.Next() {
			if err := b.checkOpaque(path, iter.Value()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) seen(ptr ref) bool {
	for _, p := range b.ancestors {
		if p == ptr {
			return true
		}
	}
	return false
}

func cloneLeaf(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v.Interface()
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			if cloned := cloneLeaf(v.Index(i)); cloned != nil {
				out.Index(i).Set(reflect.ValueOf(cloned))
			}
		}
		return out.Interface()
	case reflect.Map:
		if v.IsNil() {
			return v.Interface()
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			cloned := cloneLeaf(iter.Value())
			if cloned == nil {
				out.SetMapIndex(iter.Key(), reflect.Zero(v.Type().Elem()))
				continue
			}
			out.SetMapIndex(iter.Key(), reflect.ValueOf(cloned))
		}
		return out.Interface()
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return cloneLeaf(v.Elem())
	default:
		return v.Interface()
	}
}
