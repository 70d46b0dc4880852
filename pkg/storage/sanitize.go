package storage

import (
	"fmt"

	"github.com/goliatone/go-statekit/internal/tree"
	"github.com/goliatone/go-statekit/schema"
)

// Removed records a private value taken out of a snapshot.
type Removed struct {
	Path  schema.Path
	Value any
}

// Sanitize returns a deep copy of state without the values at private paths,
// plus the removed values in the order they were taken. Paths missing from
// state are skipped.
func Sanitize(state map[string]any, private []schema.Path) (map[string]any, []Removed) {
	out := tree.CloneMap(state)
	var removed []Removed
	for _, path := range private {
		if len(path) == 0 {
			continue
		}
		value, ok := tree.Lookup(out, path)
		if !ok {
			continue
		}
		removed = append(removed, Removed{Path: path.Clone(), Value: tree.Clone(value)})
		out = tree.DeleteIn(out, path)
	}
	return out, removed
}

// Restore puts removed values back into a copy of sanitized. Entries are
// applied in reverse so nested removals land inside their restored parents.
func Restore(sanitized map[string]any, removed []Removed) map[string]any {
	out := tree.CloneMap(sanitized)
	for i := len(removed) - 1; i >= 0; i-- {
		entry := removed[i]
		if len(entry.Path) == 0 {
			continue
		}
		out = tree.SetIn(out, entry.Path, tree.Clone(entry.Value))
	}
	return out
}

// PrivatePaths normalizes private entries. A string names a top-level key;
// a []string or schema.Path names a nested path.
func PrivatePaths(entries ...any) ([]schema.Path, error) {
	out := make([]schema.Path, 0, len(entries))
	for i, entry := range entries {
		switch typed := entry.(type) {
		case string:
			if typed == "" {
				return nil, fmt.Errorf("storage: private entry %d is empty", i)
			}
			out = append(out, schema.Path{typed})
		case []string:
			if len(typed) == 0 {
				return nil, fmt.Errorf("storage: private entry %d is empty", i)
			}
			out = append(out, schema.Path(typed).Clone())
		case schema.Path:
			if len(typed) == 0 {
				return nil, fmt.Errorf("storage: private entry %d is empty", i)
			}
			out = append(out, typed.Clone())
		default:
			return nil, fmt.Errorf("storage: private entry %d has unsupported type %T", i, entry)
		}
	}
	return out, nil
}
