package store

import (
	"bytes"
	"context"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"
)

type pebbleBackend struct {
	db *pebble.DB
}

func NewPebbleBackend(dir string) (Backend, error) {
	return openPebble(dir, &pebble.Options{})
}

// NewPebbleMemBackend runs pebble on an in-memory filesystem.
func NewPebbleMemBackend() (Backend, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(dir string, opts *pebble.Options) (Backend, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open pebble backend in %q", dir)
	}
	return &pebbleBackend{db: db}, nil
}

func (p *pebbleBackend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	data, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = closer.Close() }()
	return bytes.Clone(data), true, nil
}

func (p *pebbleBackend) Write(_ context.Context, batch []Mutation) error {
	b := p.db.NewBatch()
	defer func() { _ = b.Close() }()
	for _, mutation := range batch {
		if err := b.Set(mutation.Key, mutation.Value, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// Iterate reads from a point-in-time iterator, concurrent writes are not observed.
func (p *pebbleBackend) Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return err
	}
	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			_ = it.Close()
			return err
		}
		if !fn(bytes.Clone(it.Key()), bytes.Clone(it.Value())) {
			break
		}
	}
	if err := it.Error(); err != nil {
		_ = it.Close()
		return err
	}
	return it.Close()
}

func (p *pebbleBackend) Close() error {
	return p.db.Close()
}
