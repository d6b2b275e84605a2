package shape

import (
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
)

// Set is an immutable collection of profiles addressed by name.
type Set struct {
	byName map[string]*Profile
	names  []string
}

// NewSet validates profiles and builds a Set. Names must be unique, nested
// references must resolve, nesting must not cycle and codec names must be
// known.
func NewSet(profiles ...Profile) (*Set, error) {
	s, v := buildSet(profiles)
	if len(v) > 0 {
		return nil, &DocumentError{Violations: v}
	}
	return s, nil
}

func buildSet(profiles []Profile) (*Set, []Violation) {
	s := &Set{byName: make(map[string]*Profile, len(profiles))}
	var out []Violation
	at := func(i int, field string) string {
		p := "/profiles/" + strconv.Itoa(i)
		if field != "" {
			p += "/" + field
		}
		return p
	}

	for i := range profiles {
		p := profiles[i]
		if p.Name == "" {
			out = append(out, Violation{Path: at(i, "name"), Message: "profile name is required"})
			continue
		}
		if _, dup := s.byName[p.Name]; dup {
			out = append(out, Violation{Path: at(i, "name"), Message: fmt.Sprintf("duplicate profile %q", p.Name)})
			continue
		}
		if _, err := codecsFor(p.Decode); err != nil {
			out = append(out, Violation{Path: at(i, "decode"), Message: err.Error()})
		}
		if _, err := codecsFor(p.Encode); err != nil {
			out = append(out, Violation{Path: at(i, "encode"), Message: err.Error()})
		}
		for j, f := range p.NewFields {
			if n := countSources(f); n > 1 {
				out = append(out, Violation{
					Path:    at(i, "newFields/"+strconv.Itoa(j)),
					Message: fmt.Sprintf("field %q sets more than one of refs, value and generate", f.Name),
				})
			}
			if f.Generate != "" && f.Generate != GenerateNow && f.Generate != GenerateID {
				out = append(out, Violation{
					Path:    at(i, "newFields/"+strconv.Itoa(j)+"/generate"),
					Message: fmt.Sprintf("unknown generator %q", f.Generate),
				})
			}
		}
		s.byName[p.Name] = &p
		s.names = append(s.names, p.Name)
	}

	for i := range profiles {
		for j, n := range profiles[i].Nested {
			if _, ok := s.byName[n.Profile]; !ok {
				out = append(out, Violation{
					Path:    at(i, "nested/"+strconv.Itoa(j)+"/profile"),
					Message: fmt.Sprintf("unknown profile %q", n.Profile),
				})
			}
		}
	}
	if len(out) > 0 {
		return nil, out
	}
	if cycle := s.findCycle(); cycle != nil {
		return nil, []Violation{{Path: "/profiles", Message: "nested profiles form a cycle: " + fmt.Sprint(cycle)}}
	}
	slices.Sort(s.names)
	return s, nil
}

func countSources(f NewField) int {
	n := 0
	if len(f.Refs) > 0 {
		n++
	}
	if f.hasValue() {
		n++
	}
	if f.Generate != "" {
		n++
	}
	return n
}

// findCycle returns the profile names of a nesting cycle, nil when none.
func (s *Set) findCycle() []string {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int, len(s.byName))
	var stack []string
	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case visiting:
			i := slices.Index(stack, name)
			return append(slices.Clone(stack[i:]), name)
		case done:
			return nil
		}
		state[name] = visiting
		stack = append(stack, name)
		for _, n := range s.byName[name].Nested {
			if c := visit(n.Profile); c != nil {
				return c
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}
	names := make([]string, 0, len(s.byName))
	for n := range s.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		if c := visit(n); c != nil {
			return c
		}
	}
	return nil
}

// Get returns a copy of the profile called name. Changing the copy does not
// affect the Set.
func (s *Set) Get(name string) (*Profile, bool) {
	p, ok := s.profile(name)
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// profile returns the stored profile itself; callers must not modify it.
func (s *Set) profile(name string) (*Profile, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.byName[name]
	return p, ok
}

// Names lists the profile names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.names)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Registry holds the current Set. Readers always see a complete snapshot;
// Store swaps it atomically.
type Registry struct {
	cur atomic.Pointer[Set]
}

// NewRegistry returns a Registry holding s.
func NewRegistry(s *Set) *Registry {
	r := &Registry{}
	r.cur.Store(s)
	return r
}

// Load returns the current snapshot.
func (r *Registry) Load() *Set { return r.cur.Load() }

// Store replaces the snapshot.
func (r *Registry) Store(s *Set) { r.cur.Store(s) }
