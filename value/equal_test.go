package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b  any
		equal bool
	}{
		{nil, nil, true},
		{true, true, true},
		{true, false, false},
		{1, 1.0, true},
		{1, 2, false},
		{"a", "a", true},
		{"a", "b", false},
		{"1", 1, false},
		{nil, false, false},
		{nil, map[string]any{}, false},
		{[]any{}, map[string]any{}, false},
		{[]any{1, 2}, []any{1, 2}, true},
		{[]any{1, 2}, []any{2, 1}, false},
		{[]any{1, 2}, []any{1, 2, 3}, false},
		{map[string]any{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1}, true},
		{map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, false},
		{map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{map[string]any{"a": nil}, map[string]any{}, false},
		{
			map[string]any{"fun": map[string]any{"id": "fun", "tags": []any{"x", nil}}},
			map[string]any{"fun": map[string]any{"tags": []any{"x", nil}, "id": "fun"}},
			true,
		},
		{map[string]any{"a": 1}, "a", false},
	}
	for i, c := range cases {
		a, b := MustFromAny(c.a), MustFromAny(c.b)
		assert.Equal(t, c.equal, Equal(a, b), "case %d", i)
		assert.Equal(t, c.equal, Equal(b, a), "case %d reversed", i)
		assert.Equal(t, !c.equal, NotEqual(a, b), "case %d", i)
	}
}

func TestEqualNilIsNull(t *testing.T) {
	assert.True(t, Equal(nil, Null{}))
	assert.False(t, Equal(nil, String("")))
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(Bool(false)))
}

func TestEqualPair(t *testing.T) {
	equal, err := EqualPair(String("a"), String("a"))
	require.NoError(t, err)
	assert.True(t, equal)

	_, err = EqualPair(String("a"))
	assert.ErrorIs(t, err, ErrMisuse)
	_, err = EqualPair(String("a"), String("a"), String("a"))
	assert.ErrorIs(t, err, ErrMisuse)
}
