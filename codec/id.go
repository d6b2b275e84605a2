package codec

import (
	"context"

	"github.com/reoring/reshape"
)

// ID converts between the canonical text form of an identifier and reshape.ID.
func ID() Codec[string, reshape.ID] { return idCodec{} }

type idCodec struct{}

func (idCodec) Decode(_ context.Context, a string) (reshape.ID, error) {
	id, err := reshape.ParseID(a)
	if err != nil {
		return reshape.NilID, reshape.Issues{{Path: "/", Code: reshape.CodeInvalidFormat, Message: "invalid id", Hint: "uuid", Cause: err}}
	}
	return id, nil
}

func (idCodec) Encode(_ context.Context, b reshape.ID) (string, error) { return b.String(), nil }
