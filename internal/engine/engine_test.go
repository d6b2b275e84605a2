package engine

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsKeyOrder(t *testing.T) {
	v, err := Decode(NewBytes([]byte(`{"b":1,"a":[true,null,"x"],"b":2.5}`)), nil)
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, obj.Keys)
	assert.Equal(t, json.Number("2.5"), obj.Values["b"])
	assert.Equal(t, []any{true, nil, "x"}, obj.Values["a"])
}

func TestDecode_Float64(t *testing.T) {
	v, err := Decode(NewBytes([]byte(`[1, 2.5]`)), Float64)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, v)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(NewBytes([]byte(`{"a":1} {}`)), nil)
	assert.ErrorIs(t, err, ErrTrailingData)

	_, err = Decode(NewBytes([]byte(`{"a":[1`)), nil)
	assert.Error(t, err)

	_, err = Decode(NewBytes(nil), nil)
	assert.Error(t, err)
}

func TestEnforce_Duplicates(t *testing.T) {
	doc := []byte(`{"a":{"x":1,"x":2},"l":[{"k":1,"k":2}]}`)

	var warned []SimpleIssue
	src := WrapWithEnforcement(NewBytes(doc), EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { warned = append(warned, si) },
	})
	_, err := Decode(src, nil)
	require.NoError(t, err)
	require.Len(t, warned, 2)
	assert.Equal(t, "/a/x", warned[0].Path)
	assert.Equal(t, "/l/0/k", warned[1].Path)

	_, err = Decode(WrapWithEnforcement(NewBytes(doc), EnforceOptions{OnDuplicate: DupError}), nil)
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "duplicate_key", ie.Code)
	assert.Equal(t, "/a/x", ie.Path)
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := WrapWithEnforcement(NewBytes([]byte(`{"a":[{"b":1}]}`)), EnforceOptions{MaxDepth: 2})
	_, err := Decode(src, nil)
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "/a/0", ie.Path)
}
