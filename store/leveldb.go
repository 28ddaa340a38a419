package store

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	dbm "github.com/tendermint/tm-db"
)

const levelDBName = "statesync"

type levelDBBackend struct {
	db dbm.DB
}

// NewLevelDBBackend opens a goleveldb database named statesync in dir.
func NewLevelDBBackend(dir string) (Backend, error) {
	db, err := dbm.NewGoLevelDB(levelDBName, dir)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open leveldb backend in %q", dir)
	}
	return &levelDBBackend{db: db}, nil
}

// Get treats a nil result as absent, records are never empty.
func (l *levelDBBackend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	data, err := l.db.Get(key)
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}
	return bytes.Clone(data), true, nil
}

func (l *levelDBBackend) Write(_ context.Context, batch []Mutation) error {
	b := l.db.NewBatch()
	defer b.Close()
	for _, mutation := range batch {
		b.Set(mutation.Key, mutation.Value)
	}
	return b.WriteSync()
}

// Iterate collects the range first since no writes may land in a domain
// while a tm-db iterator is open over it.
func (l *levelDBBackend) Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error {
	it, err := l.db.Iterator(lower, upper)
	if err != nil {
		return err
	}
	var items []kv
	for ; it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			it.Close()
			return err
		}
		items = append(items, kv{key: bytes.Clone(it.Key()), value: bytes.Clone(it.Value())})
	}
	err = it.Error()
	it.Close()
	if err != nil {
		return err
	}
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

func (l *levelDBBackend) Close() error {
	return l.db.Close()
}
