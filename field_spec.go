package reshape

import "fmt"

// SpecKind discriminates the three shapes of a field specification.
type SpecKind uint8

const (
	SpecLiteral SpecKind = iota // assign a value directly
	SpecRefs                    // space-join resolved tokens
	SpecIndexed                 // payload spec plus a target output position
)

func (k SpecKind) String() string {
	switch k {
	case SpecLiteral:
		return "literal"
	case SpecRefs:
		return "refs"
	case SpecIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("SpecKind(%d)", uint8(k))
	}
}

// Spec is a recipe for one composed field. The zero Spec is a nil Literal.
type Spec struct {
	kind     SpecKind
	value    any
	tokens   []string
	position int
	payload  *Spec
}

// Literal assigns v as-is. nil becomes "".
func Literal(v any) Spec { return Spec{kind: SpecLiteral, value: v} }

// Refs resolves each token against the source record, then the output built so
// far, then falls back to the token text, and joins the results with spaces.
func Refs(tokens ...string) Spec {
	return Spec{kind: SpecRefs, tokens: append([]string(nil), tokens...)}
}

// At resolves payload and moves the field to position once every field has
// been computed.
func At(position int, payload Spec) Spec {
	p := payload
	return Spec{kind: SpecIndexed, position: position, payload: &p}
}

func (s Spec) Kind() SpecKind { return s.kind }

// Value is the literal value; nil for other kinds.
func (s Spec) Value() any { return s.value }

func (s Spec) Tokens() []string { return append([]string(nil), s.tokens...) }

func (s Spec) Position() int { return s.position }

// Payload returns the wrapped spec of an indexed spec.
func (s Spec) Payload() (Spec, bool) {
	if s.kind != SpecIndexed || s.payload == nil {
		return Spec{}, false
	}
	return *s.payload, true
}

// FieldDecl declares one composed field.
type FieldDecl struct {
	Name string
	Spec Spec
}

// Field is shorthand for a FieldDecl.
func Field(name string, s Spec) FieldDecl { return FieldDecl{Name: name, Spec: s} }

// Fields is an ordered set of field declarations. Declaring a name again
// replaces its spec and keeps its first slot, like assigning a map key twice.
type Fields struct {
	decls []FieldDecl
	index map[string]int
}

// NewFields builds a field set from decls.
func NewFields(decls ...FieldDecl) *Fields {
	f := &Fields{}
	for _, d := range decls {
		f.Set(d.Name, d.Spec)
	}
	return f
}

// Set declares name and returns f for chaining.
func (f *Fields) Set(name string, s Spec) *Fields {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[name]; ok {
		f.decls[i].Spec = s
		return f
	}
	f.index[name] = len(f.decls)
	f.decls = append(f.decls, FieldDecl{Name: name, Spec: s})
	return f
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.decls)
}

// Decls returns the declarations in evaluation order.
func (f *Fields) Decls() []FieldDecl {
	if f == nil {
		return nil
	}
	return append([]FieldDecl(nil), f.decls...)
}
