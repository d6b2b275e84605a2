package reshape

// MoveEntry removes the first entry called name and re-inserts it at position
// of the remaining list. Positions past the end append; negative positions
// count from the end and stop at 0. A missing name leaves entries unchanged.
// The input slice is not modified.
func MoveEntry(entries []Entry, name string, position int) []Entry {
	from := -1
	for i, e := range entries {
		if e.Name == name {
			from = i
			break
		}
	}
	if from < 0 {
		return entries
	}
	moved := entries[from]
	rest := make([]Entry, 0, len(entries))
	rest = append(rest, entries[:from]...)
	rest = append(rest, entries[from+1:]...)

	at := position
	if at < 0 {
		at = max(len(rest)+at, 0)
	}
	if at > len(rest) {
		at = len(rest)
	}
	out := make([]Entry, 0, len(entries))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	return append(out, rest[at:]...)
}

// DedupeEntries keeps the first occurrence of every (name, serialized value)
// pair. Entries sharing a name but holding different values are all kept.
func DedupeEntries(entries []Entry) []Entry {
	type key struct{ name, value string }
	seen := make(map[key]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := key{e.Name, serializeValue(e.Value)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
