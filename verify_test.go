package reshape_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/reshape"
)

func TestVerifyJSON_CollectsEveryOffender(t *testing.T) {
	rec := reshape.Of("name", "", "email", "a@b.com", "city", "")

	err := reshape.VerifyJSON(rec, reshape.FieldList("name", "email", "city"), reshape.NoEmptyString)
	require.Error(t, err)
	assert.EqualError(t, err, "Fields [name, city] can't be empty string")
	assert.ErrorIs(t, err, reshape.ErrValidation)

	var ve *reshape.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "city"}, ve.Fields)
}

func TestVerifyJSON_Wording(t *testing.T) {
	cases := []struct {
		name string
		rec  *reshape.Record
		sel  reshape.Selector
		want string
	}{
		{
			name: "single explicit field",
			rec:  reshape.Of("a", ""),
			sel:  reshape.FieldList("a"),
			want: "Field [a] can't be empty string",
		},
		{
			name: "several checked, one failed",
			rec:  reshape.Of("a", "", "b", "x"),
			sel:  reshape.FieldList("a", "b"),
			want: "Fields [a] can't be empty string",
		},
		{
			name: "all fields, several failed",
			rec:  reshape.Of("a", "", "b", ""),
			sel:  reshape.All(),
			want: "Field [a, b] can't be empty string",
		},
		{
			name: "selector order",
			rec:  reshape.Of("a", "", "b", ""),
			sel:  reshape.FieldList("b", "a"),
			want: "Fields [b, a] can't be empty string",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, reshape.VerifyJSON(tc.rec, tc.sel, reshape.NoEmptyString), tc.want)
		})
	}
}

func TestVerifyJSON_Passes(t *testing.T) {
	rec := reshape.Of("a", "x", "b", nil, "c", 0, "d", " ")

	assert.NoError(t, reshape.VerifyJSON(rec, reshape.All(), reshape.NoEmptyString))
	// absent fields are not checked
	assert.NoError(t, reshape.VerifyJSON(rec, reshape.FieldList("missing"), reshape.NoEmptyString))
	assert.NoError(t, reshape.VerifyJSON(reshape.NewRecord(0), reshape.All(), reshape.NoEmptyString))
}

func TestVerifyJSON_UnknownMode(t *testing.T) {
	err := reshape.VerifyJSON(reshape.Of("a", ""), reshape.All(), reshape.Mode("no-nulls"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, reshape.ErrUnsupportedMode))
	assert.False(t, errors.Is(err, reshape.ErrValidation))
}

func TestVerifyJSON_Issues(t *testing.T) {
	err := reshape.VerifyJSON(reshape.Of("a", "", "b/c", ""), reshape.All(), reshape.NoEmptyString)

	iss, ok := reshape.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 2)
	assert.Equal(t, "/a", iss[0].Path)
	assert.Equal(t, "/b~1c", iss[1].Path)
	assert.Equal(t, reshape.CodeEmptyString, iss[0].Code)
	assert.Equal(t, "a", iss[0].Params["field"])
}

func TestSelector(t *testing.T) {
	assert.True(t, reshape.All().IsAll())
	s := reshape.FieldList("x", "y")
	assert.False(t, s.IsAll())
	assert.Equal(t, []string{"x", "y"}, s.Fields())
}
