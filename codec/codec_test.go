package codec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/reshape"
)

func TestID_Roundtrip(t *testing.T) {
	ctx := context.Background()
	id := reshape.NewID()

	got, err := ID().Decode(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	s, err := ID().Encode(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, id.String(), s)
}

func TestID_Invalid(t *testing.T) {
	_, err := ID().Decode(context.Background(), "not-an-id")
	iss, ok := reshape.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, reshape.CodeInvalidFormat, iss[0].Code)
	assert.Equal(t, "uuid", iss[0].Hint)
}

func TestIdentity(t *testing.T) {
	v, err := Identity[int]().Decode(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestNamed(t *testing.T) {
	for _, name := range Names() {
		c, ok := Named(name)
		assert.True(t, ok, name)
		assert.NotNil(t, c, name)
	}
	_, ok := Named("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"id", "identity", "time"}, Names())
}

func TestErase_PassThroughAndTypeMismatch(t *testing.T) {
	ctx := context.Background()
	c := Erase(ID())
	id := reshape.NewID()

	v, err := c.DecodeValue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, v)

	v, err = c.EncodeValue(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	_, err = c.DecodeValue(ctx, 42)
	iss, ok := reshape.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, reshape.CodeInvalidType, iss[0].Code)
}

func TestDecodeFields(t *testing.T) {
	ctx := context.Background()
	id := reshape.NewID()
	in := reshape.Of(
		"name", "Ann",
		"responsible", id.String(),
		"created_at", "2025-03-04T05:06:07Z",
		"deleted_at", nil,
	)
	codecs := map[string]FieldCodec{
		"responsible": Erase(ID()),
		"created_at":  Erase(TimeRFC3339()),
		"deleted_at":  Erase(TimeRFC3339()),
		"missing":     Erase(ID()),
	}

	out, err := DecodeFields(ctx, in, codecs)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "responsible", "created_at", "deleted_at"}, out.Keys())
	assert.Equal(t, id, out.Value("responsible"))
	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), out.Value("created_at"))
	assert.Nil(t, out.Value("deleted_at"))

	// the input is untouched
	assert.Equal(t, id.String(), in.Value("responsible"))

	back, err := EncodeFields(ctx, out, codecs)
	require.NoError(t, err)
	assert.True(t, back.Equal(in), "got %s", back)
}

func TestDecodeFields_ReportsEveryField(t *testing.T) {
	in := reshape.Of("a", "x", "b", "y")
	codecs := map[string]FieldCodec{"a": Erase(ID()), "b": Erase(TimeRFC3339())}

	_, err := DecodeFields(context.Background(), in, codecs)
	iss, ok := reshape.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 2)
	assert.Equal(t, "/a", iss[0].Path)
	assert.Equal(t, "/b", iss[1].Path)
}
