// Package jsonschema describes, as JSON Schema, the input a profile accepts.
// Only the checks a schema can express are exported: non-empty fields,
// exclusive query groups, dependent fields, nested profiles and the formats of
// decoded fields. Composition and output shaping are not described.
package jsonschema

import (
	"github.com/reoring/reshape"
	"github.com/reoring/reshape/shape"
)

var codecFormats = map[string]string{
	"id":   "uuid",
	"time": "date-time",
}

// FromProfile exports the input schema of the profile called name.
func FromProfile(set *shape.Set, name string) (*Schema, error) {
	s, err := fromProfile(set, name)
	if err != nil {
		return nil, err
	}
	s.Dialect = Draft
	s.Type = "object"
	return s, nil
}

func fromProfile(set *shape.Set, name string) (*Schema, error) {
	p, ok := set.Get(name)
	if !ok {
		return nil, &reshape.NotFoundError{Entity: "Profile", Key: name}
	}
	s := &Schema{Title: p.Name, Description: p.Description}

	if q := p.Query; q != nil {
		if c := queryConflict(q); c != nil {
			s.AllOf = append(s.AllOf, &Schema{Not: c})
		}
	}
	for _, r := range p.Requires {
		for _, d := range r.Dependents {
			s.AllOf = append(s.AllOf, &Schema{If: requiredSet(d), Then: requiredSet(r.Anchor)})
		}
	}
	for _, f := range p.Required {
		s.property(f).Not = &Schema{Const: ""}
	}
	for _, n := range p.Nested {
		sub, err := fromProfile(set, n.Profile)
		if err != nil {
			return nil, err
		}
		prop := s.property(n.Field)
		prop.AllOf = append(prop.AllOf, sub)
	}
	for field, c := range p.Decode {
		if f, ok := codecFormats[c]; ok {
			prop := s.property(field)
			prop.Type = "string"
			prop.Format = f
		}
	}
	if p.RequireAll {
		for _, prop := range s.Properties {
			if prop.Not == nil {
				prop.Not = &Schema{Const: ""}
			} else {
				prop.AllOf = append(prop.AllOf, nonEmpty())
			}
		}
		s.AdditionalProperties = nonEmpty()
	}
	return s, nil
}

// queryConflict matches the records the query rule rejects, or is nil when
// the rule can never fail.
func queryConflict(q *shape.Query) *Schema {
	if len(q.Except) > 0 {
		return &Schema{AllOf: []*Schema{
			anyPresent(q.Except),
			{Not: &Schema{PropertyNames: &Schema{Enum: toAny(q.Except)}}},
		}}
	}
	if len(q.Valid) == 0 || len(q.Invalid) == 0 {
		return nil
	}
	return &Schema{AllOf: []*Schema{anyPresent(q.Valid), anyPresent(q.Invalid)}}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
