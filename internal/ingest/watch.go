package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// stableCheckInterval is how often a freshly written file is polled
// before it is considered fully copied into the watch directory.
const stableCheckInterval = 500 * time.Millisecond

// Watcher observes a directory and invokes a handler for every new
// image or PDF dropped into it. Files are handed off only once their
// size stops changing, so partially copied scans are never processed.
type Watcher struct {
	dir     string
	handler func(path string)
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]int64 // path -> last observed size
}

// NewWatcher creates a watcher over dir. The handler runs on the
// watcher goroutine; long work should be dispatched by the caller.
func NewWatcher(dir string, handler func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logger,
		pending: make(map[string]int64),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", "dir", w.dir)

	ticker := time.NewTicker(stableCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsImageFile(event.Name) && !IsPDFFile(event.Name) {
				continue
			}
			w.track(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-ticker.C:
			for _, path := range w.settled() {
				w.logger.Info("new document detected", "file", path)
				w.handler(path)
			}
		}
	}
}

func (w *Watcher) track(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.pending[path] = info.Size()
	w.mu.Unlock()
}

// settled returns tracked files whose size is unchanged since the last
// tick and removes them from the pending set.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, lastSize := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() == lastSize {
			delete(w.pending, path)
			ready = append(ready, path)
			continue
		}
		w.pending[path] = info.Size()
	}
	return ready
}
