// Package file feeds a container from a json state file and keeps the file
// as the editable face of the synchronized state.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/RuiFG/statesync/log"
	"github.com/RuiFG/statesync/operator"
	"github.com/RuiFG/statesync/state"
	"github.com/RuiFG/statesync/value"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultSettle is how long the file must stay untouched before it is re-read.
const DefaultSettle = 100 * time.Millisecond

type Option func(*Watcher)

func WithLogger(logger log.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func WithSettle(settle time.Duration) Option {
	return func(w *Watcher) {
		w.settle = settle
	}
}

type Watcher struct {
	logger log.Logger
	path   string
	dir    string
	settle time.Duration
}

func New(path string, opts ...Option) (*Watcher, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid state file %s", path)
	}
	w := &Watcher{
		path:   absolutePath,
		dir:    filepath.Dir(absolutePath),
		settle: DefaultSettle,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.Named("file")
	}
	return w, nil
}

func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) Exists() bool {
	info, err := os.Stat(w.path)
	return err == nil && !info.IsDir()
}

// Read parses the file, which must hold a json object. An empty file is an empty state.
func (w *Watcher) Read() (state.State, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read state file")
	}
	if len(data) == 0 {
		return state.State{}, nil
	}
	object, err := value.UnmarshalObject(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse state file %s", w.path)
	}
	return state.State(object), nil
}

// Write replaces the file with s through a rename, so readers never see a partial file.
func (w *Watcher) Write(s state.State) error {
	data, err := json.MarshalIndent(value.Object(s), "", "  ")
	if err != nil {
		return errors.WithMessage(err, "failed to encode state")
	}
	temp, err := os.CreateTemp(w.dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return errors.WithMessage(err, "failed to create temp state file")
	}
	defer func() { _ = os.Remove(temp.Name()) }()
	if _, err := temp.Write(append(data, '\n')); err != nil {
		_ = temp.Close()
		return errors.WithMessage(err, "failed to write temp state file")
	}
	if err := temp.Close(); err != nil {
		return err
	}
	return os.Rename(temp.Name(), w.path)
}

func (w *Watcher) watchDir() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return nil, errors.WithMessagef(err, "failed to watch %s", w.dir)
	}
	return watcher, nil
}

// Watch calls fn with the file content each time the file settles after a
// change, until ctx is done. Unparsable content is logged and skipped.
func (w *Watcher) Watch(ctx context.Context, fn func(state.State)) error {
	watcher, err := w.watchDir()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	changes := make(chan struct{}, 1)
	settled := operator.Debounce(ctx, w.settle, changes)
	w.logger.Infow("watching state file", "path", w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				w.logger.Debugf("received other events %+v", event)
				continue
			}
			select {
			case changes <- struct{}{}:
			default:
			}
		case <-settled:
			s, err := w.Read()
			if err != nil {
				w.logger.Warnw("ignoring state file change", "err", err)
				continue
			}
			w.logger.Debugw("state file changed", "keys", len(s))
			fn(s)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("received watcher error", "err", err)
		}
	}
}
