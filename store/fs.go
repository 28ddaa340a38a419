package store

import (
	"bytes"
	"context"
	"sort"

	"github.com/RuiFG/statesync/log"
	"github.com/pkg/errors"
	"github.com/xujiajun/nutsdb"
)

const fsBucket = "statesync"

// fs keeps entries in a single nutsdb B+tree bucket.
type fs struct {
	logger log.Logger
	db     *nutsdb.DB
}

func NewFSBackend(logger log.Logger, dir string) (Backend, error) {
	opts := nutsdb.DefaultOptions
	opts.SegmentSize = 64 * nutsdb.MB
	opts.Dir = dir
	db, err := nutsdb.Open(opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open fs backend in %s", dir)
	}
	if logger == nil {
		logger = log.Named("store.fs")
	}
	logger.Infow("opened fs backend", "dir", dir)
	return &fs{logger: logger, db: db}, nil
}

// isAbsent reports the nutsdb errors that mean a key, or the whole bucket,
// holds nothing yet.
func isAbsent(err error) bool {
	return nutsdb.IsKeyNotFound(err) ||
		nutsdb.IsBucketNotFound(err) ||
		nutsdb.IsBucketEmpty(err) ||
		errors.Is(err, nutsdb.ErrNotFoundKey) ||
		errors.Is(err, nutsdb.ErrRangeScan)
}

func (f *fs) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	var (
		result []byte
		found  bool
	)
	err := f.db.View(func(tx *nutsdb.Tx) error {
		entry, err := tx.Get(fsBucket, key)
		if err != nil {
			if isAbsent(err) {
				return nil
			}
			return err
		}
		result, found = bytes.Clone(entry.Value), true
		return nil
	})
	if err != nil {
		return nil, false, errors.WithMessagef(err, "failed to get %q", key)
	}
	return result, found, nil
}

func (f *fs) Write(_ context.Context, batch []Mutation) error {
	if err := f.db.Update(func(tx *nutsdb.Tx) error {
		for _, mutation := range batch {
			if err := tx.Put(fsBucket, mutation.Key, mutation.Value, 0); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return errors.WithMessage(err, "failed to persist batch")
	}
	return nil
}

// Iterate loads the bucket inside one read transaction and visits it
// afterwards, so fn is free to write.
func (f *fs) Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error {
	var items []kv
	if err := f.db.View(func(tx *nutsdb.Tx) error {
		entries, err := tx.GetAll(fsBucket)
		if err != nil {
			if isAbsent(err) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			if bytes.Compare(entry.Key, lower) < 0 || (upper != nil && bytes.Compare(entry.Key, upper) >= 0) {
				continue
			}
			items = append(items, kv{key: bytes.Clone(entry.Key), value: bytes.Clone(entry.Value)})
		}
		return nil
	}); err != nil {
		return errors.WithMessage(err, "unable to iterate fs backend, the state maybe corrupted")
	}
	sort.Slice(items, func(i, j int) bool {
		return bytes.Compare(items[i].key, items[j].key) < 0
	})
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(item.key, item.value) {
			return nil
		}
	}
	return nil
}

func (f *fs) Close() error {
	f.logger.Infow("closing fs backend")
	return f.db.Close()
}
