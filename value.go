package reshape

import (
	"fmt"
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ID is an opaque identifier reference to another stored record. New IDs are
// UUIDv7 so they sort by creation time.
type ID uuid.UUID

// NilID is the zero identifier.
var NilID ID

// NewID returns a fresh time-ordered identifier.
func NewID() ID { return ID(uuid.Must(uuid.NewV7())) }

// ParseID parses the canonical text form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("reshape: invalid id %q: %w", s, err)
	}
	return ID(u), nil
}

func (id ID) String() string { return uuid.UUID(id).String() }

func (id ID) IsZero() bool { return id == NilID }

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// cloneValue deep-copies containers so composed output never aliases its
// source. Scalars, times and IDs are values already.
func cloneValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.Clone()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		if t == nil {
			return t
		}
		return append([]string(nil), t...)
	default:
		return v
	}
}

// serializeValue is the structural identity used for deduplication.
func serializeValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%#v", v, v)
	}
	return string(b)
}

// stringify renders a value for space-joined concatenation. Nested objects and
// lists render as their JSON text; nil renders as "null".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64:
		return strconv.FormatInt(toInt64(t), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(toUint64(t), 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case json.Number:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case ID:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return serializeValue(v)
	}
}

func formatFloat(f float64) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v.(int64)
	}
}

func toUint64(v any) uint64 {
	switch t := v.(type) {
	case uint:
		return uint64(t)
	case uint8:
		return uint64(t)
	case uint16:
		return uint64(t)
	case uint32:
		return uint64(t)
	default:
		return v.(uint64)
	}
}

// isBlank reports the "no value" sentinel used by concatenation: absent or "".
func isBlank(v any, present bool) bool {
	if !present {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
