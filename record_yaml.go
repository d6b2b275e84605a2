package reshape

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML emits a mapping node in record order.
func (r *Record) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if r == nil {
		return n, nil
	}
	for k, v := range r.All() {
		kn := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		vn := &yaml.Node{}
		if err := vn.Encode(v); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		n.Content = append(n.Content, kn, vn)
	}
	return n, nil
}

// UnmarshalYAML decodes a mapping keeping its key order. Nested mappings
// become nested records.
func (r *Record) UnmarshalYAML(value *yaml.Node) error {
	v, err := fromYAMLNode(value)
	if err != nil {
		return err
	}
	rec, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("reshape: line %d: expected a mapping", value.Line)
	}
	*r = *rec
	return nil
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		rec := NewRecord(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("reshape: line %d: %w", n.Content[i].Line, err)
			}
			v, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			rec.Set(key, v)
		}
		return rec, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("reshape: line %d: %w", n.Line, err)
		}
		return v, nil
	}
}
