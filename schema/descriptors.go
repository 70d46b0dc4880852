package schema

// Descriptor describes one declared path and its kind.
type Descriptor struct {
	Path Path
	Kind Kind
}

// Descriptors flattens the schema into declared paths, parents before
// children, in declaration order.
func (s *Schema) Descriptors() []Descriptor {
	root := s.Root()
	if root == nil {
		return []Descriptor{}
	}
	var out []Descriptor
	for _, child := range root.fields {
		out = appendDescriptors(out, child)
	}
	if out == nil {
		out = []Descriptor{}
	}
	return out
}

func appendDescriptors(out []Descriptor, n *Node) []Descriptor {
	out = append(out, Descriptor{Path: n.Path(), Kind: n.kind})
	for _, child := range n.fields {
		out = appendDescriptors(out, child)
	}
	return out
}
