package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "state.json"), WithLogger(log.Nop()))
	require.NoError(t, err)
	assert.False(t, w.Exists())

	s := state.State{
		"hello": value.String("world"),
		"ids":   value.Array{value.String("fun")},
	}
	require.NoError(t, w.Write(s))
	assert.True(t, w.Exists())
	read, err := w.Read()
	require.NoError(t, err)
	assert.Equal(t, s, read)

	require.NoError(t, os.WriteFile(w.Path(), nil, 0o600))
	read, err = w.Read()
	require.NoError(t, err)
	assert.Empty(t, read)

	require.NoError(t, os.WriteFile(w.Path(), []byte(`[1, 2]`), 0o600))
	_, err = w.Read()
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "state.json"), WithLogger(log.Nop()), WithSettle(20*time.Millisecond))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan state.State, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(s state.State) { received <- s })
	}()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(w.Path(), []byte(`{"broken"`), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Write(state.State{"hello": value.String("there")}))

	select {
	case s := <-received:
		assert.Equal(t, state.State{"hello": value.String("there")}, s)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no change observed")
	}
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "watch did not stop")
	}
}
