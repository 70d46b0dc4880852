// Package pathtree mirrors a schema as a navigable tree of path nodes. Each
// node knows its root-relative path; navigating to an undeclared key fails
// with ErrPathNotExist.
package pathtree

import (
	"errors"

	"github.com/goliatone/go-statekit/schema"
)

// ErrPathNotExist reports navigation to a key the schema does not declare.
var ErrPathNotExist = errors.New("statekit: state path does not exist")

// Node is one declared path. The tree is built once and never mutated.
type Node struct {
	path     schema.Path
	kind     schema.Kind
	keys     []string
	children map[string]*Node
}

// Build walks s and returns the root node (empty path).
func Build(s *schema.Schema) *Node {
	return build(s.Root())
}

func build(n *schema.Node) *Node {
	node := &Node{path: schema.Path{}}
	if n == nil {
		return node
	}
	node.path = n.Path()
	node.kind = n.Kind()
	fields := n.Fields()
	if len(fields) == 0 {
		return node
	}
	node.children = make(map[string]*Node, len(fields))
	for _, field := range fields {
		node.keys = append(node.keys, field.Key())
		node.children[field.Key()] = build(field)
	}
	return node
}

// Path returns a copy of the node's path.
func (n *Node) Path() schema.Path { return n.path.Clone() }

// Kind returns the declared kind of the node.
func (n *Node) Kind() schema.Kind { return n.kind }

// Keys returns the declared child keys in order.
func (n *Node) Keys() []string { return append([]string(nil), n.keys...) }

// IsLeaf reports whether the node has no declared children.
func (n *Node) IsLeaf() bool { return len(n.keys) == 0 }

// EventKey returns the change listener key for this path.
func (n *Node) EventKey() string { return n.path.EventKey() }

// Child returns the declared child for key, or an error carrying the full
// attempted path.
func (n *Node) Child(key string) (*Node, error) {
	if child, ok := n.children[key]; ok {
		return child, nil
	}
	return nil, &schema.PathError{Op: "path", Path: n.path.Append(key), Err: ErrPathNotExist}
}

// Lookup navigates through keys, failing at the first undeclared segment.
func (n *Node) Lookup(keys ...string) (*Node, error) {
	current := n
	for _, key := range keys {
		next, err := current.Child(key)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// MustLookup is like Lookup but panics when the path is not declared.
func (n *Node) MustLookup(keys ...string) *Node {
	node, err := n.Lookup(keys...)
	if err != nil {
		panic(err)
	}
	return node
}

// Walk visits every node below n (excluding n) depth first, parents before
// children, in declaration order. Returning false from fn skips the node's
// children.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, key := range n.keys {
		child := n.children[key]
		if fn(child) {
			child.Walk(fn)
		}
	}
}
