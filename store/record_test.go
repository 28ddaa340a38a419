package store

import (
	"testing"

	"github.com/RuiFG/statesync/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestRecordChecksum(t *testing.T) {
	v := value.MustFromAny(map[string]any{"hello": "world"})
	data, err := encodeRecord(7, v)
	require.NoError(t, err)

	entry, err := decodeRecord([]byte("k"), data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), entry.Seq)
	assert.True(t, value.Equal(v, entry.Value))

	// "world" sits inside the value payload
	tampered := append([]byte(nil), data...)
	for i := range tampered {
		if tampered[i] == 'w' {
			tampered[i] = 'W'
			break
		}
	}
	_, err = decodeRecord([]byte("k"), tampered)
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestRecordWithoutChecksum(t *testing.T) {
	data, err := encodeRecord(3, value.String("x"))
	require.NoError(t, err)
	// seq field, value field, then the 9 byte fixed64 checksum field
	unsummed := data[:len(data)-1-8]
	_, _, n := protowire.ConsumeTag(data[len(unsummed):])
	require.Equal(t, 1, n)

	entry, err := decodeRecord([]byte("k"), unsummed)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), entry.Seq)
	assert.True(t, value.Equal(value.String("x"), entry.Value))
}
