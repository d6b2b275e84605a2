package shape

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/reshape"
	"github.com/reoring/reshape/codec"
	"github.com/reoring/reshape/rules"
)

// Profile is a named pipeline turning one record shape into another. Steps run
// in a fixed order: query rule, dependent fields, required fields, nested
// profiles, decode codecs, composition, encode codecs, pruning.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	Query      *Query        `yaml:"query,omitempty"`
	Requires   []Requirement `yaml:"requires,omitempty"`
	Required   []string      `yaml:"required,omitempty"`
	RequireAll bool          `yaml:"requireAll,omitempty"`
	Nested     []Nested      `yaml:"nested,omitempty"`

	Decode    map[string]string `yaml:"decode,omitempty"`
	NewFields []NewField        `yaml:"newFields,omitempty"`
	Delete    []string          `yaml:"delete,omitempty"`
	Encode    map[string]string `yaml:"encode,omitempty"`
	Optional  []string          `yaml:"optional,omitempty"`
}

// Query is the exclusive-group rule for query records: either Valid/Invalid
// or the complement form Except.
type Query struct {
	Valid   []string `yaml:"valid,omitempty"`
	Invalid []string `yaml:"invalid,omitempty"`
	Except  []string `yaml:"except,omitempty"`
}

// Rule converts q to its reshape form.
func (q *Query) Rule() reshape.QueryRule {
	if len(q.Except) > 0 {
		return reshape.AllExcept(q.Except...)
	}
	return reshape.Explicit(q.Valid, q.Invalid)
}

// Requirement forbids Dependents while Anchor is unset.
type Requirement struct {
	Anchor     string   `yaml:"anchor"`
	Dependents []string `yaml:"dependents"`
}

// Nested applies another profile to the sub-record stored under Field.
type Nested struct {
	Field   string `yaml:"field"`
	Profile string `yaml:"profile"`
}

// Generators for NewField.Generate.
const (
	GenerateNow = "now"
	GenerateID  = "id"
)

// NewField declares one composed field. At most one of Refs, Value and
// Generate is set; with none the field is assigned "".
type NewField struct {
	Name     string    `yaml:"name"`
	Refs     []string  `yaml:"refs,omitempty"`
	Value    yaml.Node `yaml:"value,omitempty"`
	Generate string    `yaml:"generate,omitempty"`
	Position *int      `yaml:"position,omitempty"`
}

// Literal builds a NewField assigning v.
func Literal(name string, v any) NewField {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		panic(fmt.Sprintf("shape.Literal(%q): %v", name, err))
	}
	return NewField{Name: name, Value: n}
}

func (f NewField) hasValue() bool { return f.Value.Kind != 0 }

func (f NewField) spec(now time.Time) (reshape.Spec, error) {
	var s reshape.Spec
	switch {
	case len(f.Refs) > 0:
		s = reshape.Refs(f.Refs...)
	case f.Generate == GenerateNow:
		s = reshape.Literal(now)
	case f.Generate == GenerateID:
		s = reshape.Literal(reshape.NewID())
	case f.hasValue():
		v, err := nodeValue(&f.Value)
		if err != nil {
			return reshape.Spec{}, fmt.Errorf("field %q: %w", f.Name, err)
		}
		s = reshape.Literal(v)
	default:
		s = reshape.Literal(nil)
	}
	if f.Position != nil {
		s = reshape.At(*f.Position, s)
	}
	return s, nil
}

// nodeValue decodes a literal. Mappings, including those inside lists, keep
// their key order.
func nodeValue(n *yaml.Node) (any, error) {
	wrap := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "v"}, n,
	}}
	var r reshape.Record
	if err := wrap.Decode(&r); err != nil {
		return nil, err
	}
	return r.Value("v"), nil
}

func (p *Profile) fields(now time.Time) (*reshape.Fields, error) {
	if len(p.NewFields) == 0 {
		return nil, nil
	}
	out := reshape.NewFields()
	for _, f := range p.NewFields {
		s, err := f.spec(now)
		if err != nil {
			return nil, err
		}
		out.Set(f.Name, s)
	}
	return out, nil
}

func (p *Profile) requirementRules() []rules.Rule {
	out := make([]rules.Rule, 0, len(p.Requires))
	for _, r := range p.Requires {
		out = append(out, rules.Requires(r.Anchor, r.Dependents...))
	}
	return out
}

func codecsFor(names map[string]string) (map[string]codec.FieldCodec, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[string]codec.FieldCodec, len(names))
	for field, name := range names {
		c, ok := codec.Named(name)
		if !ok {
			return nil, fmt.Errorf("field %q: unknown codec %q", field, name)
		}
		out[field] = c
	}
	return out, nil
}

func (p *Profile) clone() *Profile {
	c := *p
	if p.Query != nil {
		q := Query{
			Valid:   slices.Clone(p.Query.Valid),
			Invalid: slices.Clone(p.Query.Invalid),
			Except:  slices.Clone(p.Query.Except),
		}
		c.Query = &q
	}
	if p.Requires != nil {
		c.Requires = make([]Requirement, len(p.Requires))
		for i, r := range p.Requires {
			c.Requires[i] = Requirement{Anchor: r.Anchor, Dependents: slices.Clone(r.Dependents)}
		}
	}
	c.Required = slices.Clone(p.Required)
	c.Nested = slices.Clone(p.Nested)
	c.Decode = maps.Clone(p.Decode)
	c.Encode = maps.Clone(p.Encode)
	c.Delete = slices.Clone(p.Delete)
	c.Optional = slices.Clone(p.Optional)
	if p.NewFields != nil {
		c.NewFields = make([]NewField, len(p.NewFields))
	}
	for i, f := range p.NewFields {
		f.Refs = slices.Clone(f.Refs)
		if f.Position != nil {
			pos := *f.Position
			f.Position = &pos
		}
		f.Value = cloneNode(f.Value)
		c.NewFields[i] = f
	}
	return &c
}

func cloneNode(n yaml.Node) yaml.Node {
	if len(n.Content) > 0 {
		content := make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			cc := cloneNode(*child)
			content[i] = &cc
		}
		n.Content = content
	}
	return n
}
