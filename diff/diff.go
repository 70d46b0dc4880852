// Package diff computes which declared leaf paths an update changes.
//
// The walk is driven by the schema: only declared keys are inspected, in
// declaration order, parents before children. A key is only descended into
// when the update names it explicitly at that level; untouched keys are never
// reported even when their descendants might differ. Arrays and keys declared
// as null are opaque and compared as whole values.
package diff

import (
	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/schema"
)

// Paths returns the ordered list of leaf paths whose value differs between
// update and prev. Missing keys and nil values are distinct states.
func Paths(update, prev map[string]any, s *schema.Schema) []schema.Path {
	if s == nil {
		return nil
	}
	var out []schema.Path
	return walk(out, schema.Path{}, update, prev, s.Root())
}

func walk(out []schema.Path, base schema.Path, update, prev map[string]any, node *schema.Node) []schema.Path {
	for _, field := range node.Fields() {
		key := field.Key()
		next, inUpdate := update[key]
		if !inUpdate {
			continue
		}
		previous, inPrev := prev[key]
		path := base.Append(key)

		nextMap, nextIsMap := next.(map[string]any)
		if !nextIsMap || !field.IsObject() {
			if !inPrev || !tree.Equal(next, previous) {
				out = append(out, path)
			}
			continue
		}

		prevMap, _ := previous.(map[string]any)
		out = walk(out, path, nextMap, prevMap, field)
	}
	return out
}

// Changed reports whether any declared path differs.
func Changed(update, prev map[string]any, s *schema.Schema) bool {
	return len(Paths(update, prev, s)) > 0
}
