package store

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrClosed = errors.New("backend closed")

// Mutation sets Key to Value.
type Mutation struct {
	Key   []byte
	Value []byte
}

// Backend is the ordered byte-level storage a Store runs on.
// Write applies the whole batch atomically. Iterate visits keys in
// [lower, upper) in ascending byte order until fn returns false;
// fn may write to the same backend.
type Backend interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	Write(ctx context.Context, batch []Mutation) error
	Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error
	Close() error
}

type kv struct {
	key   []byte
	value []byte
}

// memory only for test and ephemeral use
type memory struct {
	mutex  sync.RWMutex
	items  []kv
	closed bool
}

func NewMemoryBackend() Backend {
	return &memory{}
}

func (m *memory) search(key []byte) (int, bool) {
	i := sort.Search(len(m.items), func(i int) bool {
		return bytes.Compare(m.items[i].key, key) >= 0
	})
	return i, i < len(m.items) && bytes.Equal(m.items[i].key, key)
}

func (m *memory) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	i, found := m.search(key)
	if !found {
		return nil, false, nil
	}
	return bytes.Clone(m.items[i].value), true, nil
}

func (m *memory) Write(_ context.Context, batch []Mutation) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, mutation := range batch {
		item := kv{key: bytes.Clone(mutation.Key), value: bytes.Clone(mutation.Value)}
		i, found := m.search(mutation.Key)
		if found {
			m.items[i] = item
			continue
		}
		m.items = append(m.items, kv{})
		copy(m.items[i+1:], m.items[i:])
		m.items[i] = item
	}
	return nil
}

func (m *memory) Iterate(ctx context.Context, lower, upper []byte, fn func(key, value []byte) bool) error {
	m.mutex.RLock()
	if m.closed {
		m.mutex.RUnlock()
		return ErrClosed
	}
	start, _ := m.search(lower)
	var snapshot []kv
	for _, item := range m.items[start:] {
		if upper != nil && bytes.Compare(item.key, upper) >= 0 {
			break
		}
		snapshot = append(snapshot, item)
	}
	m.mutex.RUnlock()

	for _, item := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(bytes.Clone(item.key), bytes.Clone(item.value)) {
			return nil
		}
	}
	return nil
}

func (m *memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	m.items = nil
	return nil
}
