// Package watcher reports out-of-band changes to the resource files, such as
// an operator editing data/posts.json by hand.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mbj/siteapi/internal/adapters/repository"
	"github.com/mbj/siteapi/internal/domain/entities"
	"github.com/mbj/siteapi/internal/infrastructure/logger"
	"github.com/mbj/siteapi/internal/infrastructure/metrics"
	"github.com/mbj/siteapi/internal/ports"
)

// Inspector validates a single resource file as it sits on disk.
type Inspector interface {
	Inspect(ctx context.Context, key entities.ResourceKey) ports.ResourceReport
}

// Stats counts the events the watcher acted on.
type Stats struct {
	Created       int
	Modified      int
	Removed       int
	Renamed       int
	Invalid       int
	Errors        int
	LastEventPath string
	LastEventType string
	LastEventTime time.Time
}

// DataWatcher watches the data directory and re-validates a resource file
// whenever it is created or modified.
type DataWatcher struct {
	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	dir       string
	files     map[string]entities.ResourceKey
	inspector Inspector
	metrics   *metrics.Metrics
	logger    *logger.Logger
	stats     Stats
}

// New starts watching dir. Events queue until Run is called. inspector and m
// may be nil.
func New(dir string, inspector Inspector, m *metrics.Metrics, appLogger *logger.Logger) (*DataWatcher, error) {
	if appLogger == nil {
		appLogger = logger.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	files := make(map[string]entities.ResourceKey)
	for _, key := range entities.AllResourceKeys() {
		files[key.FileName()] = key
	}

	return &DataWatcher{
		watcher:   fw,
		dir:       dir,
		files:     files,
		inspector: inspector,
		metrics:   m,
		logger:    appLogger.WithComponent("watcher"),
	}, nil
}

// Run watches until ctx is cancelled, then closes the underlying watcher.
func (w *DataWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.logger.Infow("Watching data directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("Watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorw("Watcher error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		}
	}
}

// Stats returns a snapshot of the counters.
func (w *DataWatcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *DataWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if repository.IsTempFile(name) {
		return
	}
	key, ok := w.files[name]
	if !ok {
		return
	}

	var op string
	switch {
	case event.Has(fsnotify.Create):
		op = "create"
	case event.Has(fsnotify.Write):
		op = "write"
	case event.Has(fsnotify.Remove):
		op = "remove"
	case event.Has(fsnotify.Rename):
		op = "rename"
	default:
		return
	}

	w.mu.Lock()
	switch op {
	case "create":
		w.stats.Created++
	case "write":
		w.stats.Modified++
	case "remove":
		w.stats.Removed++
	case "rename":
		w.stats.Renamed++
	}
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = op
	w.stats.LastEventTime = time.Now()
	w.mu.Unlock()

	w.metrics.ObserveFileEvent(key.String(), op)
	w.logger.Infow("Resource file changed", "resource", key, "op", op, "path", event.Name)

	switch op {
	case "remove", "rename":
		w.logger.Warnw("Resource file went away, reads will fail until it is restored", "resource", key, "path", event.Name)
		return
	}

	if w.inspector == nil {
		return
	}
	report := w.inspector.Inspect(ctx, key)
	if report.OK {
		return
	}

	// A hand edit can be caught mid-write; the next event re-checks it.
	w.mu.Lock()
	w.stats.Invalid++
	w.mu.Unlock()
	w.logger.Warnw("Resource file failed validation", "resource", key, "path", report.Path, "error", report.Error)
}
