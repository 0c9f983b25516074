package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a catalog file for changes and reloads the catalog when
// the file is rewritten. Reloads are debounced so editors that write in
// multiple steps trigger a single reload.
type Watcher struct {
	catalog  *Catalog
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the given catalog file. The file must
// already load successfully before watching is useful; Start does not do an
// initial load.
func NewWatcher(c *Catalog, path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		catalog:  c,
		path:     path,
		debounce: debounce,
		watcher:  fsw,
		logger:   slog.Default().With("component", "catalog.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("catalog watcher already running")
	}

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch catalog file %q: %w", w.path, err)
	}

	w.running = true
	go w.loop()

	w.logger.Info("catalog watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	return nil
}

// loop processes fsnotify events until Stop is called.
func (w *Watcher) loop() {
	defer close(w.doneCh)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Some editors replace the file, which drops the watch; re-add
			// so subsequent writes are still observed.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				_ = w.watcher.Add(w.path)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			if err := w.catalog.LoadFile(w.path); err != nil {
				w.logger.Error("catalog reload failed, keeping previous catalog",
					"path", w.path,
					"error", err,
				)
			} else {
				w.logger.Info("catalog reloaded", "path", w.path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false

	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh

	w.logger.Info("catalog watcher stopped")
	return err
}
