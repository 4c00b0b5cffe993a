package ade

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a dataset Watcher.
type WatcherConfig struct {
	// Root is the dataset root directory to watch.
	Root string

	// DebounceDelay is how long to wait for more changes before
	// emitting a batch. Defaults to 500ms.
	DebounceDelay time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher watches a dataset tree for changes to images, masks, and
// attribute files and emits debounced change batches so callers can
// re-run an import.
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]bool // changed paths relative to root

	changes chan []string
}

// NewWatcher creates a dataset watcher for the configured root.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 500 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]bool),
		changes: make(chan []string, 16),
	}, nil
}

// Changes returns the channel of debounced change batches. Each batch
// holds root-relative paths sorted lexically.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Start begins watching the dataset root for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("dataset watcher started",
		"root", w.config.Root,
		"debounce", w.config.DebounceDelay)
	return nil
}

// Stop stops the watcher and closes the change channel.
func (w *Watcher) Stop() error {
	close(w.changes)
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to the root and all subdirectories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a single fsnotify event if it touches a
// dataset file.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !isDatasetFile(path) {
		// Watch newly created directories so nested super labels keep
		// getting events.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
		}
		return
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		rel = path
	}

	w.pendingMu.Lock()
	w.pending[rel] = true
	w.pendingMu.Unlock()

	w.logger.Debug("dataset change detected", "path", rel, "op", event.Op.String())
}

// flushPending emits accumulated changes as one batch.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	sort.Strings(batch)

	select {
	case w.changes <- batch:
	default:
		w.logger.Warn("dropping change batch, consumer too slow", "size", len(batch))
	}
}

// isDatasetFile reports whether a path is part of the annotation
// layout (raw image, mask, or attribute file).
func isDatasetFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, attrSuffix) ||
		strings.HasSuffix(base, segSuffix) ||
		partsPattern.MatchString(base) {
		return true
	}
	return imageExtensions[strings.ToLower(filepath.Ext(base))]
}
