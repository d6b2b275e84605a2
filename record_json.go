package reshape

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	eng "github.com/reoring/reshape/internal/engine"
)

// MarshalJSON writes fields in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for k, v := range r.All() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keeping its field order. Duplicate keys are
// tolerated (last value wins); use DecodeJSON for stricter policies.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*r = *dec
	return nil
}

// DecodeJSON decodes a single JSON object into a Record.
func DecodeJSON(data []byte, opts ...DecodeOpt) (*Record, error) {
	v, err := decodeJSONValue(data, lastDecodeOpt(opts))
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, Issues{Root().Issue(CodeInvalidType, "expected a JSON object")}
	}
	return rec, nil
}

// DecodeJSONRecords decodes either one object or an array of objects.
func DecodeJSONRecords(data []byte, opts ...DecodeOpt) ([]*Record, error) {
	v, err := decodeJSONValue(data, lastDecodeOpt(opts))
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *Record:
		return []*Record{t}, nil
	case []any:
		out := make([]*Record, 0, len(t))
		for i, e := range t {
			rec, ok := e.(*Record)
			if !ok {
				return nil, Issues{Root().Index(i).Issue(CodeInvalidType, "expected a JSON object")}
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, Issues{Root().Issue(CodeInvalidType, "expected a JSON object or array of objects")}
	}
}

func decodeJSONValue(data []byte, opt DecodeOpt) (any, error) {
	enforced := eng.WrapWithEnforcement(eng.NewBytes(data), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		IssueSink: func(si eng.SimpleIssue) {
			if opt.OnIssue != nil {
				opt.OnIssue(Issue{Path: si.Path, Code: si.Code, Message: si.Message})
			}
		},
	})
	conv := eng.JSONNumber
	if opt.Numbers == NumberFloat64 {
		conv = eng.Float64
	}
	v, err := eng.Decode(enforced, conv)
	if err != nil {
		return nil, toIssues(err)
	}
	return fromEngineValue(v), nil
}

func fromEngineValue(v any) any {
	switch t := v.(type) {
	case *eng.Object:
		r := NewRecord(len(t.Keys))
		for _, k := range t.Keys {
			r.Set(k, fromEngineValue(t.Values[k]))
		}
		return r
	case []any:
		for i, e := range t {
			t[i] = fromEngineValue(e)
		}
		return t
	default:
		return v
	}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Error:
		return eng.DupError
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupIgnore
	}
}

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	return AppendIssues(nil, Issue{Code: CodeParseError, Path: "/", Message: err.Error(), Cause: err})
}
