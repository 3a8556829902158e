package excel

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"molintel/internal"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher calls onChange after the data file is written, replaced or
// removed. Bursts of events within the debounce window collapse into one
// call. The parent directory is watched because editors and exporters
// usually replace the file rather than write it in place.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	debounce time.Duration
	logger   *internal.Logger

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewFileWatcher creates a watcher for path. Start must be called to begin
// delivering changes.
func NewFileWatcher(path string, onChange func()) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &FileWatcher{
		watcher:  watcher,
		path:     abs,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
		logger:   internal.DefaultLogger.With("FileWatcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (w *FileWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info("watching %s", w.path)
	w.started = true
	go w.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit. It must not
// race with Start.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("error closing watcher: %v", err)
		}
		if w.started {
			<-w.doneCh
		}
	})
}

func (w *FileWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("%s event for %s", event.Op, event.Name)
			pending = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error: %v", err)

		case <-pending:
			pending = nil
			w.logger.Info("%s changed", filepath.Base(w.path))
			w.onChange()
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
