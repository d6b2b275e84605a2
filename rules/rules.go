// Package rules builds record checks from small composable pieces: required
// non-empty fields, exclusive query groups, dependent fields and conditionals.
package rules

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/reshape"
	"github.com/reoring/reshape/i18n"
)

// Rule inspects a record and returns the problems it found.
type Rule func(rec *reshape.Record) []reshape.Issue

// Check runs every rule and returns the collected issues, nil when all pass.
func Check(rec *reshape.Record, rules ...Rule) error {
	var all reshape.Issues
	for _, r := range rules {
		if r == nil {
			continue
		}
		if iss := r(rec); len(iss) > 0 {
			all = reshape.AppendIssues(all, iss...)
		}
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// NonEmpty rejects the listed fields when they hold "". With no fields every
// field of the record is checked.
func NonEmpty(fields ...string) Rule {
	sel := reshape.FieldList(fields...)
	if len(fields) == 0 {
		sel = reshape.All()
	}
	return func(rec *reshape.Record) []reshape.Issue {
		return fromError(reshape.VerifyJSON(rec, sel, reshape.NoEmptyString))
	}
}

// Exclusive forbids mixing fields of valid with fields of invalid.
func Exclusive(valid, invalid []string) Rule {
	return func(rec *reshape.Record) []reshape.Issue {
		return fromError(reshape.VerifyQuery(rec, valid, invalid))
	}
}

// Requires reports dependents that are set while anchor is not. A field is set
// when present and neither nil nor "".
func Requires(anchor string, dependents ...string) Rule {
	return func(rec *reshape.Record) []reshape.Issue {
		if isSet(rec, anchor) {
			return nil
		}
		var used bool
		for _, d := range dependents {
			if isSet(rec, d) {
				used = true
				break
			}
		}
		if !used {
			return nil
		}
		msg := i18n.T(reshape.CodeRequires, map[string]string{"field": anchor, "dependents": quoteOr(dependents)})
		return []reshape.Issue{reshape.Root().Field(anchor).Issue(reshape.CodeRequires, msg,
			"anchor", anchor, "dependents", append([]string(nil), dependents...))}
	}
}

// quoteOr renders a, b as "'a' or 'b'".
func quoteOr(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, " or ")
}

func isSet(rec *reshape.Record, name string) bool {
	v, ok := rec.Get(name)
	if !ok || v == nil {
		return false
	}
	s, isStr := v.(string)
	return !isStr || s != ""
}

func fromError(err error) []reshape.Issue {
	if err == nil {
		return nil
	}
	if iss, ok := reshape.AsIssues(err); ok {
		return iss
	}
	return []reshape.Issue{{Path: "/", Code: reshape.CodeInvalidType, Message: err.Error(), Cause: err}}
}

// Op defines the comparison used by If(...).Then(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	Present // field exists, whatever its value
	Absent
)

// Conditional gates rules on the content of the record.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a condition on the value at path, a JSON Pointer into the record
// ("/status", "/address/street"). A bare name is treated as a top-level field.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: normalizePath(path), op: op, want: want}
}

// IfAll holds when every condition holds.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny holds when at least one condition holds.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Holds evaluates the condition against rec.
func (c Conditional) Holds(rec *reshape.Record) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(rec) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(rec) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAtPath(rec, c.path)
	switch c.op {
	case Present:
		return ok
	case Absent:
		return !ok
	}
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then attaches rules that run only when the condition holds.
func (c Conditional) Then(rules ...Rule) Rule {
	return func(rec *reshape.Record) []reshape.Issue {
		if !c.Holds(rec) {
			return nil
		}
		return And(rules...)(rec)
	}
}

// And runs all rules and concatenates their issues.
func And(rules ...Rule) Rule {
	return func(rec *reshape.Record) []reshape.Issue {
		var out []reshape.Issue
		for _, r := range rules {
			if r == nil {
				continue
			}
			out = append(out, r(rec)...)
		}
		return out
	}
}

// Or succeeds when any rule passes. When all fail it returns the branch with
// the fewest issues.
func Or(rules ...Rule) Rule {
	return func(rec *reshape.Record) []reshape.Issue {
		var best []reshape.Issue
		bestSet := false
		for _, r := range rules {
			if r == nil {
				continue
			}
			iss := r(rec)
			if len(iss) == 0 {
				return nil
			}
			if !bestSet || len(iss) < len(best) {
				best = iss
				bestSet = true
			}
		}
		return best
	}
}

// ------- helpers -------

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// valueAtPath walks nested records and lists by JSON Pointer.
func valueAtPath(rec *reshape.Record, pointer string) (any, bool) {
	rel := strings.TrimPrefix(pointer, "/")
	if rel == "" {
		return rec, rec != nil
	}
	var cur any = rec
	for _, seg := range strings.Split(rel, "/") {
		seg = pointerUnescaper.Replace(seg)
		switch t := cur.(type) {
		case *reshape.Record:
			v, ok := t.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return nil, false
			}
			cur = t[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return equal(cur, want)
	case Ne:
		return !equal(cur, want)
	case Lt, Le, Gt, Ge:
		a, okA := toFloat64(cur)
		b, okB := toFloat64(want)
		if !okA || !okB {
			return false
		}
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		default:
			return a >= b
		}
	default:
		return false
	}
}

// equal compares numbers by value, so json.Number("1") equals 1, and
// everything else by its JSON form.
func equal(a, b any) bool {
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return fa == fb
		}
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
