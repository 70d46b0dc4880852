package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FromYAML parses a YAML document into a Schema, keeping mapping key order.
func FromYAML(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	if doc.Kind == 0 {
		return New(Fields{})
	}
	value, err := fromNode(&doc)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return New(Fields{})
	}
	return New(value)
}

// FromJSON parses a JSON document into a Schema, keeping object key order.
// JSON is read through the YAML parser, which accepts it as a subset.
func FromJSON(data []byte) (*Schema, error) {
	return FromYAML(data)
}

// LoadFile reads a schema from disk. Files ending in .json are parsed as JSON,
// everything else as YAML.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	if filepath.Ext(path) == ".json" {
		return FromJSON(data)
	}
	return FromYAML(data)
}

func fromNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])
	case yaml.AliasNode:
		return nil, fmt.Errorf("%w: aliases are not supported (line %d)", ErrInvalidSchema, node.Line)
	case yaml.MappingNode:
		fields := make(Fields, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var key string
			if err := node.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("schema: key at line %d: %w", node.Content[i].Line, err)
			}
			value, err := fromNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Key: key, Value: value})
		}
		return fields, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("schema: value at line %d: %w", node.Line, err)
		}
		return value, nil
	}
}

// ToYAML renders the schema defaults as YAML keeping declaration order.
func (s *Schema) ToYAML() ([]byte, error) {
	return yaml.Marshal(toNode(s.Root()))
}

func toNode(n *Node) *yaml.Node {
	if n.kind != KindObject {
		out := &yaml.Node{}
		if err := out.Encode(n.Default()); err != nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		return out
	}
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(n.fields) == 0 {
		out.Style = yaml.FlowStyle
	}
	for _, child := range n.fields {
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: child.key},
			toNode(child),
		)
	}
	return out
}
