package reshape

import (
	"cmp"
	"slices"
)

// ComposeOpt configures Compose.
type ComposeOpt struct {
	NewFields *Fields
	Delete    []string
}

// Compose builds a new record from src:
//
//  1. deep-copy src;
//  2. drop the fields named in opt.Delete;
//  3. resolve every declaration of opt.NewFields in order;
//  4. move indexed fields to their positions, ascending, each against the list
//     left by the previous move;
//  5. drop later entries whose (name, serialized value) repeats an earlier one.
//
// Compose never fails. The result shares no nested record, map or slice with
// src or with literal values from opt.
func Compose(src *Record, opt ComposeOpt) *Record {
	c := composer{src: src, out: src.Clone()}
	if c.out == nil {
		c.out = NewRecord(0)
	}
	for _, name := range opt.Delete {
		c.out.Delete(name)
	}
	for _, d := range opt.NewFields.Decls() {
		c.resolve(d.Name, d.Spec)
	}
	if len(c.positions) == 0 {
		return c.out
	}

	// Stable sort keeps declaration order between equal positions.
	slices.SortStableFunc(c.positions, func(a, b indexed) int { return cmp.Compare(a.position, b.position) })
	entries := c.out.Entries()
	for _, p := range c.positions {
		entries = MoveEntry(entries, p.name, p.position)
	}
	return FromEntries(DedupeEntries(entries))
}

type indexed struct {
	name     string
	position int
}

type composer struct {
	src       *Record
	out       *Record
	positions []indexed
}

func (c *composer) resolve(name string, s Spec) {
	switch s.kind {
	case SpecIndexed:
		c.recordPosition(name, s.position)
		if s.payload != nil {
			c.resolve(name, *s.payload)
		} else {
			c.out.Set(name, "")
		}
	case SpecRefs:
		for _, tok := range s.tokens {
			c.appendValue(name, c.lookup(tok))
		}
	default:
		if s.value == nil {
			c.out.Set(name, "")
			return
		}
		c.out.Set(name, cloneValue(s.value))
	}
}

// recordPosition keeps one position per name; the latest request wins.
func (c *composer) recordPosition(name string, position int) {
	for i := range c.positions {
		if c.positions[i].name == name {
			c.positions = append(c.positions[:i], c.positions[i+1:]...)
			break
		}
	}
	c.positions = append(c.positions, indexed{name: name, position: position})
}

// lookup resolves a token: source field, then output so far, then the token.
func (c *composer) lookup(tok string) any {
	if v, ok := c.src.Get(tok); ok {
		return v
	}
	if v, ok := c.out.Get(tok); ok {
		return v
	}
	return tok
}

func (c *composer) appendValue(name string, v any) {
	cur, ok := c.out.Get(name)
	if isBlank(cur, ok) {
		c.out.Set(name, cloneValue(v))
		return
	}
	c.out.Set(name, stringify(cur)+" "+stringify(v))
}
