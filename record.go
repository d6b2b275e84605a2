package reshape

import (
	"fmt"
	"iter"
	"slices"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Entry is one (name, value) pair of a Record.
type Entry struct {
	Name  string
	Value any
}

// Record is an ordered mapping from field name to value. Field order is the
// order fields are emitted when the record is serialized.
//
// A nil *Record reads as empty. Records are not safe for concurrent mutation.
type Record struct {
	fields *sequencedmap.Map[string, any]
}

// NewRecord returns an empty record. n is a size hint.
func NewRecord(n int) *Record {
	return &Record{fields: sequencedmap.New[string, any]()}
}

// Of builds a record from alternating name/value arguments. It panics when a
// name is not a string or a value is missing.
func Of(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("reshape.Of: odd number of arguments")
	}
	r := NewRecord(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("reshape.Of: field name at %d is %T, not string", i, kv[i]))
		}
		r.Set(name, kv[i+1])
	}
	return r
}

// FromEntries rebuilds a record from entries. A repeated name overwrites the
// earlier value and keeps the earlier slot.
func FromEntries(entries []Entry) *Record {
	r := NewRecord(len(entries))
	for _, e := range entries {
		r.Set(e.Name, e.Value)
	}
	return r
}

// FromMap converts a map into a record with fields sorted by name. Nested maps
// become nested records.
func FromMap(m map[string]any) *Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	r := NewRecord(len(keys))
	for _, k := range keys {
		r.Set(k, fromMapValue(m[k]))
	}
	return r
}

func fromMapValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromMapValue(e)
		}
		return out
	default:
		return v
	}
}

func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	if r.Len() == 0 {
		return nil
	}
	out := make([]string, 0, r.Len())
	for k := range r.fields.All() {
		out = append(out, k)
	}
	return out
}

// Get returns the value of name and whether the field is present.
func (r *Record) Get(name string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

// Value returns the value of name, nil when absent.
func (r *Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set assigns name. A new name is appended; an existing one keeps its slot.
func (r *Record) Set(name string, v any) {
	if r.fields == nil {
		r.fields = sequencedmap.New[string, any]()
	}
	r.fields.Set(name, v)
}

// Delete removes name and reports whether it was present.
func (r *Record) Delete(name string) bool {
	if !r.Has(name) {
		return false
	}
	r.fields.Delete(name)
	return true
}

// Entries returns the ordered (name, value) list. Values are not copied.
func (r *Record) Entries() []Entry {
	if r.Len() == 0 {
		return nil
	}
	out := make([]Entry, 0, r.Len())
	for k, v := range r.fields.All() {
		out = append(out, Entry{Name: k, Value: v})
	}
	return out
}

// All iterates fields in order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r.Len() == 0 {
			return
		}
		for k, v := range r.fields.All() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Clone returns a deep copy: nested records, maps and slices are copied too.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := NewRecord(r.Len())
	for k, v := range r.All() {
		out.Set(k, cloneValue(v))
	}
	return out
}

// Map returns an unordered view with nested records converted to maps.
func (r *Record) Map() map[string]any {
	if r == nil {
		return nil
	}
	m := make(map[string]any, r.Len())
	for k, v := range r.All() {
		m[k] = toMapValue(v)
	}
	return m
}

func toMapValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toMapValue(e)
		}
		return out
	default:
		return v
	}
}

// Equal reports structural equality including field order.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	a, b := r.Entries(), o.Entries()
	for i := range a {
		if a[i].Name != b[i].Name || serializeValue(a[i].Value) != serializeValue(b[i].Value) {
			return false
		}
	}
	return true
}

// Sub returns the nested record stored under name. Plain maps are converted.
func (r *Record) Sub(name string) (*Record, bool) {
	switch t := r.Value(name).(type) {
	case *Record:
		return t, t != nil
	case map[string]any:
		return FromMap(t), true
	default:
		return nil, false
	}
}

func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", r.Entries())
	}
	return string(b)
}
