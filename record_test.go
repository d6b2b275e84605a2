package reshape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/reshape"
)

func TestRecord_SetKeepsSlot(t *testing.T) {
	r := reshape.Of("b", 1, "a", 2)
	r.Set("b", 3)
	r.Set("c", 4)

	assert.Equal(t, []string{"b", "a", "c"}, r.Keys())
	assert.Equal(t, 3, r.Value("b"))
	assert.Equal(t, 3, r.Len())
}

func TestRecord_Delete(t *testing.T) {
	r := reshape.Of("a", 1, "b", 2, "c", 3)

	assert.True(t, r.Delete("b"))
	assert.False(t, r.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, r.Keys())
	assert.False(t, r.Has("b"))
}

func TestRecord_NilReadsEmpty(t *testing.T) {
	var r *reshape.Record

	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Keys())
	assert.False(t, r.Has("a"))
	assert.Nil(t, r.Clone())
	assert.Equal(t, "null", r.String())
	for range r.All() {
		t.Fatal("nil record yielded a field")
	}
}

func TestRecord_ZeroValueAndReinsertAfterDelete(t *testing.T) {
	var r reshape.Record
	r.Set("a", 1)
	r.Set("b", 2)
	r.Set("c", 3)

	require.True(t, r.Delete("a"))
	r.Set("a", 4)
	assert.Equal(t, []string{"b", "c", "a"}, r.Keys())
	assert.Equal(t, []reshape.Entry{{Name: "b", Value: 2}, {Name: "c", Value: 3}, {Name: "a", Value: 4}}, r.Entries())
	assert.Equal(t, `{"b":2,"c":3,"a":4}`, r.String())
}

func TestRecord_EqualNil(t *testing.T) {
	var a, b *reshape.Record

	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(reshape.NewRecord(0)))
	assert.True(t, reshape.NewRecord(0).Equal(a))
	assert.False(t, a.Equal(reshape.Of("x", 1)))
	assert.False(t, reshape.Of("x", 1).Equal(a))
}

func TestRecord_OfPanicsOnMalformedInput(t *testing.T) {
	assert.Panics(t, func() { reshape.Of("a") })
	assert.Panics(t, func() { reshape.Of(1, "a") })
}

func TestRecord_FromEntriesRepeatedName(t *testing.T) {
	r := reshape.FromEntries([]reshape.Entry{
		{Name: "a", Value: 1},
		{Name: "b", Value: 2},
		{Name: "a", Value: 3},
	})
	assert.Equal(t, []string{"a", "b"}, r.Keys())
	assert.Equal(t, 3, r.Value("a"))
}

func TestRecord_FromMapSortsAndNests(t *testing.T) {
	r := reshape.FromMap(map[string]any{
		"z":    1,
		"a":    map[string]any{"y": 1, "x": 2},
		"list": []any{map[string]any{"k": "v"}},
	})

	assert.Equal(t, []string{"a", "list", "z"}, r.Keys())
	sub, ok := r.Sub("a")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, sub.Keys())
	_, isRec := r.Value("list").([]any)[0].(*reshape.Record)
	assert.True(t, isRec)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	inner := reshape.Of("x", 1)
	m := map[string]any{"k": []any{"v"}}
	r := reshape.Of("inner", inner, "m", m, "s", []string{"p"})

	c := r.Clone()
	require.True(t, c.Equal(r))

	ci, _ := c.Sub("inner")
	ci.Set("x", 2)
	c.Value("m").(map[string]any)["k"].([]any)[0] = "w"
	c.Value("s").([]string)[0] = "q"

	assert.Equal(t, 1, inner.Value("x"))
	assert.Equal(t, "v", m["k"].([]any)[0])
	assert.Equal(t, "p", r.Value("s").([]string)[0])
}

func TestRecord_EqualIsOrderSensitive(t *testing.T) {
	a := reshape.Of("x", 1, "y", 2)
	b := reshape.Of("y", 2, "x", 1)

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(reshape.Of("x", 1, "y", 2)))
	assert.False(t, a.Equal(reshape.Of("x", 1, "y", 3)))
	assert.Equal(t, a.Map(), b.Map())
}

func TestRecord_EntriesAndAllFollowOrder(t *testing.T) {
	r := reshape.Of("c", 1, "a", 2, "b", 3)

	var names []string
	for k := range r.All() {
		names = append(names, k)
		if k == "a" {
			break
		}
	}
	assert.Equal(t, []string{"c", "a"}, names)
	assert.Equal(t, []reshape.Entry{{"c", 1}, {"a", 2}, {"b", 3}}, r.Entries())
}

func TestRecord_MapConvertsNested(t *testing.T) {
	r := reshape.Of("a", reshape.Of("b", 1), "l", []any{reshape.Of("c", 2)})
	assert.Equal(t, map[string]any{
		"a": map[string]any{"b": 1},
		"l": []any{map[string]any{"c": 2}},
	}, r.Map())
}

func TestID_TextRoundTrip(t *testing.T) {
	id := reshape.NewID()
	require.False(t, id.IsZero())

	b, err := id.MarshalText()
	require.NoError(t, err)

	var back reshape.ID
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, id, back)

	_, err = reshape.ParseID("not-an-id")
	assert.Error(t, err)
	assert.True(t, reshape.NilID.IsZero())
}
