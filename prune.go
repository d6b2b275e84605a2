package reshape

import "slices"

// Prune returns a copy of rec without the optional fields that hold nil or "".
// Fields not listed as optional are kept whatever their value. Comparison is
// strict: 0, false and empty lists are values.
func Prune(rec *Record, optional ...string) *Record {
	out := NewRecord(rec.Len())
	for k, v := range rec.All() {
		if slices.Contains(optional, k) && isEmptyValue(v) {
			continue
		}
		out.Set(k, v)
	}
	return out
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
