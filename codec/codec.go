// Package codec converts single record fields between their wire form and
// their storage form, for example an ID sent as a string and stored as
// reshape.ID.
package codec

import (
	"context"
	"fmt"
	"sort"

	"github.com/reoring/reshape"
)

// Codec performs bidirectional transformation between the wire
// representation A and the storage representation B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error) // wire -> storage
	Encode(ctx context.Context, b B) (A, error) // storage -> wire
}

// FieldCodec is a Codec with its types erased so codecs of different types
// can be attached to the fields of one record.
type FieldCodec interface {
	DecodeValue(ctx context.Context, v any) (any, error)
	EncodeValue(ctx context.Context, v any) (any, error)
}

// Erase adapts c to a FieldCodec. A value that already has the target type
// passes through unchanged.
func Erase[A, B any](c Codec[A, B]) FieldCodec { return erased[A, B]{c} }

type erased[A, B any] struct{ c Codec[A, B] }

func (e erased[A, B]) DecodeValue(ctx context.Context, v any) (any, error) {
	if b, ok := v.(B); ok {
		return b, nil
	}
	a, ok := v.(A)
	if !ok {
		var zero A
		return nil, reshape.Issues{reshape.Root().Issue(reshape.CodeInvalidType,
			fmt.Sprintf("expected %T, got %T", zero, v))}
	}
	return e.c.Decode(ctx, a)
}

func (e erased[A, B]) EncodeValue(ctx context.Context, v any) (any, error) {
	if a, ok := v.(A); ok {
		return a, nil
	}
	b, ok := v.(B)
	if !ok {
		var zero B
		return nil, reshape.Issues{reshape.Root().Issue(reshape.CodeInvalidType,
			fmt.Sprintf("expected %T, got %T", zero, v))}
	}
	return e.c.Encode(ctx, b)
}

var named = map[string]func() FieldCodec{
	"id":       func() FieldCodec { return Erase(ID()) },
	"time":     func() FieldCodec { return Erase(TimeRFC3339()) },
	"identity": func() FieldCodec { return Erase(Identity[any]()) },
}

// Named returns a built-in codec: "id", "time" or "identity".
func Named(name string) (FieldCodec, bool) {
	f, ok := named[name]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Names lists the built-in codec names, sorted.
func Names() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DecodeFields returns a copy of rec with each field listed in codecs decoded
// to its storage form. Absent and nil fields are left alone. Every failing
// field is reported; issue paths point at the field.
func DecodeFields(ctx context.Context, rec *reshape.Record, codecs map[string]FieldCodec) (*reshape.Record, error) {
	return convertFields(ctx, rec, codecs, FieldCodec.DecodeValue)
}

// EncodeFields is the reverse of DecodeFields.
func EncodeFields(ctx context.Context, rec *reshape.Record, codecs map[string]FieldCodec) (*reshape.Record, error) {
	return convertFields(ctx, rec, codecs, FieldCodec.EncodeValue)
}

func convertFields(
	ctx context.Context,
	rec *reshape.Record,
	codecs map[string]FieldCodec,
	conv func(FieldCodec, context.Context, any) (any, error),
) (*reshape.Record, error) {
	out := rec.Clone()
	if out == nil {
		out = reshape.NewRecord(0)
	}
	var iss reshape.Issues
	for _, name := range out.Keys() {
		c, ok := codecs[name]
		if !ok {
			continue
		}
		v := out.Value(name)
		if v == nil {
			continue
		}
		nv, err := conv(c, ctx, v)
		if err != nil {
			iss = reshape.AppendIssues(iss, fieldIssues(name, err)...)
			continue
		}
		out.Set(name, nv)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func fieldIssues(name string, err error) reshape.Issues {
	at := reshape.Root().Field(name)
	if ii, ok := reshape.AsIssues(err); ok {
		return reshape.Prefix(at, ii)
	}
	it := at.Issue(reshape.CodeInvalidFormat, err.Error())
	it.Cause = err
	return reshape.Issues{it}
}
