package reshape

// NumberMode dictates how JSON numbers are materialized in decoded records.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number (lossless round trip).
	NumberFloat64                      // Fast mode (with potential precision loss).
)

// Severity expresses the severity level for decode issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// DecodeOpt bundles JSON decoding options.
type DecodeOpt struct {
	// OnDuplicateKey selects the duplicate-key policy. With Ignore and Warn the
	// last value wins and the key keeps its first position; Error rejects the
	// document.
	OnDuplicateKey Severity
	MaxDepth       int // 0 means unlimited.
	Numbers        NumberMode
	// OnIssue receives non-fatal issues (Warn mode). Optional.
	OnIssue func(Issue)
}

func lastDecodeOpt(opts []DecodeOpt) DecodeOpt {
	if len(opts) == 0 {
		return DecodeOpt{}
	}
	return opts[len(opts)-1]
}
