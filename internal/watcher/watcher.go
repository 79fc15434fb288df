// Package watcher re-runs a sync when a profile's settings document
// changes on disk. Change bursts are debounced and callbacks are
// serialized per watcher, so a save storm triggers one sync and two
// syncs of the same file never interleave.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Disk-MTH/inherit-profile/internal/logging"
)

// DefaultDebounce is the settle window after the last change event.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one settings file and invokes a callback after
// changes settle.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func()

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex

	callMu sync.Mutex
	timer  *time.Timer
}

// New creates a watcher for path. The containing directory is watched
// rather than the file itself, since editors replace files on save and
// a direct watch would be lost on the first rename.
func New(path string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fw,
		path:     path,
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("settings watcher error")
		}
	}
}

// schedule arms (or pushes back) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.callMu.Lock()
		defer w.callMu.Unlock()
		w.onChange()
	})
}

// Stop stops the watcher and waits for the event loop to exit. A
// callback already in flight finishes; a pending debounce timer is
// canceled.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}
