package store

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/xujiajun/nutsdb"
)

func TestIsAbsent(t *testing.T) {
	for _, err := range []error{
		nutsdb.ErrKeyNotFound,
		nutsdb.ErrNotFoundKey,
		nutsdb.ErrBucketEmpty,
		nutsdb.ErrRangeScan,
		nutsdb.ErrBucketAndKey(fsBucket, []byte("k")),
		nutsdb.ErrNotFoundKeyInBucket(fsBucket, []byte("k")),
		errors.WithMessage(nutsdb.ErrBucketNotFound, "get"),
	} {
		assert.True(t, isAbsent(err), "%v", err)
	}
	for _, err := range []error{
		nil,
		errors.New("segment file is empty"),
		errors.New("read err. pos 12, key k, err not found"),
		nutsdb.ErrDBClosed,
	} {
		assert.False(t, isAbsent(err), "%v", err)
	}
}
