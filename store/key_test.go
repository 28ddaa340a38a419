package store

import (
	"testing"

	"github.com/RuiFG/statesync/value"
	"github.com/stretchr/testify/assert"
)

func TestCompositeKey(t *testing.T) {
	key := CompositeKey("test1", "hello")
	assert.Equal(t, []byte("test1\x00hello"), key)
	prefix, sub, ok := SplitKey(key)
	assert.True(t, ok)
	assert.Equal(t, "test1", prefix)
	assert.Equal(t, "hello", sub)

	_, _, ok = SplitKey(RawKey("hello"))
	assert.False(t, ok)

	prefix, sub, ok = SplitKey(CompositeKey("p", ""))
	assert.True(t, ok)
	assert.Equal(t, "p", prefix)
	assert.Equal(t, "", sub)
}

func TestPrefixRange(t *testing.T) {
	r := PrefixRange("a")
	assert.True(t, r.Contains(CompositeKey("a", "")))
	assert.True(t, r.Contains(CompositeKey("a", "\xff\xff")))
	assert.False(t, r.Contains(CompositeKey("ab", "x")))
	assert.False(t, r.Contains(RawKey("a")))
	assert.False(t, r.Contains(RawKey("b")))
	assert.True(t, Range{}.Contains([]byte("anything")))
}

func TestValidatePrefix(t *testing.T) {
	assert.NoError(t, ValidatePrefix("state"))
	assert.ErrorIs(t, ValidatePrefix(""), ErrInvalidPrefix)
	assert.ErrorIs(t, ValidatePrefix("a\x00b"), ErrInvalidPrefix)
}

func TestRecordCodec(t *testing.T) {
	v := map[string]any{"id": "fun", "tags": []any{1, nil, true}}
	data, err := encodeRecord(42, mustValue(v))
	assert.NoError(t, err)
	entry, err := decodeRecord([]byte("k"), data)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), entry.Seq)
	assert.Equal(t, []byte("k"), entry.Key)
	assert.Equal(t, mustValue(v), entry.Value)

	_, err = decodeRecord([]byte("k"), data[:len(data)-1])
	assert.Error(t, err)

	seq, err := decodeSeq(encodeSeq(7))
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
}

func mustValue(v any) value.Value {
	return value.MustFromAny(v)
}
