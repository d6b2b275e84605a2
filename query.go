package reshape

import "slices"

// QueryRule declares which query fields may not be combined. Build it with
// Explicit or AllExcept.
type QueryRule struct {
	valid   []string
	invalid []string
	except  bool
}

// Explicit allows the valid group and forbids combining it with invalid.
func Explicit(valid, invalid []string) QueryRule {
	return QueryRule{valid: valid, invalid: invalid}
}

// AllExcept allows every field except the listed ones, which are forbidden
// alongside the others.
func AllExcept(without ...string) QueryRule {
	return QueryRule{invalid: without, except: true}
}

// CheckQuery normalizes rule to its explicit form and runs VerifyQuery.
func CheckQuery(query *Record, rule QueryRule) error {
	if rule.except {
		return VerifyQueryExcept(query, rule.invalid)
	}
	return VerifyQuery(query, rule.valid, rule.invalid)
}

// VerifyQuery fails with a *ConflictError when query holds at least one field
// of valid and at least one of invalid. An empty valid group disables the check.
func VerifyQuery(query *Record, valid, invalid []string) error {
	if len(valid) == 0 {
		return nil
	}
	var nValid, nInvalid int
	for _, k := range query.Keys() {
		if slices.Contains(valid, k) {
			nValid++
		}
		if slices.Contains(invalid, k) {
			nInvalid++
		}
	}
	if nValid > 0 && nInvalid > 0 {
		return &ConflictError{
			Invalid: append([]string(nil), invalid...),
			Valid:   append([]string(nil), valid...),
		}
	}
	return nil
}

// VerifyQueryExcept is the complement form: every present field not listed in
// without is valid, and without itself is the invalid group.
func VerifyQueryExcept(query *Record, without []string) error {
	var valid []string
	for _, k := range query.Keys() {
		if !slices.Contains(without, k) {
			valid = append(valid, k)
		}
	}
	return VerifyQuery(query, valid, without)
}
