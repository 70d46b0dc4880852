package schema

import "strings"

// Path is an ordered list of keys from the state root to a value.
type Path []string

// ParsePath splits a dotted path ("a.b.c") into segments. Empty input yields
// the root path.
func ParsePath(value string) Path {
	value = strings.TrimSpace(value)
	if value == "" {
		return Path{}
	}
	return Path(strings.Split(value, "."))
}

// String renders the path using dots between segments.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// EventKey returns the listener key used for change events on this path.
func (p Path) EventKey() string {
	return "on_" + strings.Join(p, "_") + "_update"
}

// Append returns a new path extended by key. The receiver is never aliased.
func (p Path) Append(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Clone returns a detached copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both paths hold the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Prefixes returns every non-empty prefix of p ordered from root to leaf.
func (p Path) Prefixes() []Path {
	out := make([]Path, 0, len(p))
	for i := 1; i <= len(p); i++ {
		out = append(out, p[:i].Clone())
	}
	return out
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}
