package reshape

import "fmt"

// Mode selects what VerifyJSON checks.
type Mode string

// NoEmptyString rejects fields whose value is exactly "".
const NoEmptyString Mode = "no-empty-string"

// Selector chooses the fields VerifyJSON inspects: every field of the record
// or an explicit ordered list.
type Selector struct {
	all    bool
	fields []string
}

// All selects every field of the record, in record order.
func All() Selector { return Selector{all: true} }

// FieldList selects the named fields in the given order.
func FieldList(names ...string) Selector { return Selector{fields: names} }

func (s Selector) IsAll() bool { return s.all }

func (s Selector) Fields() []string { return append([]string(nil), s.fields...) }

// VerifyJSON checks the selected fields of rec. It does not stop at the first
// offending field: every one is collected, in selector order, and reported by a
// single *ValidationError.
//
// With a FieldList the message says "Fields" when more than one field was
// checked, even if only one failed. With All it always says "Field".
func VerifyJSON(rec *Record, sel Selector, mode Mode) error {
	if mode != NoEmptyString {
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	names := sel.fields
	plural := len(names) > 1
	if sel.all {
		names = rec.Keys()
		plural = false
	}

	var failed []string
	for _, f := range names {
		v, ok := rec.Get(f)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			failed = append(failed, f)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ValidationError{Fields: failed, Plural: plural}
}
