package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/getmockd/specmock/pkg/logging"
	"github.com/getmockd/specmock/pkg/spec"
)

// DefaultReloadDebounce coalesces the bursts of events editors produce on save.
const DefaultReloadDebounce = 200 * time.Millisecond

// LoadFunc loads the document served after a change.
type LoadFunc func() (*spec.Document, error)

// ReloadEvent reports the outcome of one reload.
type ReloadEvent struct {
	Path  string
	Error error
}

// Watcher reloads a Handler when its spec file changes. A document that fails
// to load or build leaves the previous one in service.
type Watcher struct {
	handler  *Handler
	path     string
	load     LoadFunc
	debounce time.Duration
	log      *slog.Logger

	events  chan ReloadEvent
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period after the last event before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the operational logger.
func WithWatcherLogger(log *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWatcher creates a watcher for the spec file at path.
func NewWatcher(handler *Handler, path string, load LoadFunc, opts ...WatcherOption) *Watcher {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &Watcher{
		handler:  handler,
		path:     filepath.Clean(path),
		load:     load,
		debounce: DefaultReloadDebounce,
		log:      logging.Nop(),
		events:   make(chan ReloadEvent, 10),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The parent directory is watched so that a file
// replaced by rename is still followed. Reload outcomes are published on the
// returned channel; unread events are dropped.
func (w *Watcher) Start() (<-chan ReloadEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return w.events, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.path, err)
	}

	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.watchLoop(fsw, w.stopCh, w.doneCh)

	w.log.Info("watching spec file", "path", w.path)
	return w.events, nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.running = false
	doneCh := w.doneCh
	fsw := w.fsw
	w.mu.Unlock()

	<-doneCh
	_ = fsw.Close()
}

func (w *Watcher) watchLoop(fsw *fsnotify.Watcher, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", "error", err)

		case <-timer.C:
			w.publish(ReloadEvent{Path: w.path, Error: w.reload()})
		}
	}
}

func (w *Watcher) reload() error {
	doc, err := w.load()
	if err != nil {
		w.log.Error("spec reload failed, keeping previous document", "path", w.path, "error", err)
		return err
	}
	if err := w.handler.Reload(doc); err != nil {
		w.log.Error("spec reload failed, keeping previous document", "path", w.path, "error", err)
		return err
	}
	w.log.Info("spec reloaded", "path", w.path, "operations", len(doc.Operations))
	return nil
}

func (w *Watcher) publish(ev ReloadEvent) {
	select {
	case w.events <- ev:
	default:
	}
}
