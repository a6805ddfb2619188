// Package ingest watches a documents directory and feeds new or changed
// files into the knowledge base. The transport that used to deliver files is
// external; locally the docs directory plays that role.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/yourusername/revenue-copilot/models"
)

// debounceDelay coalesces the burst of write events an editor or copy
// produces for one file.
const debounceDelay = 500 * time.Millisecond

// Ingester receives documents picked up by the watcher.
type Ingester interface {
	Ingest(ctx context.Context, att models.Attachment) (int, error)
}

// Watcher monitors one directory for ingestable documents.
type Watcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	extensions map[string]bool
	ingester   Ingester
	logger     *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over dir for the given comma-separated
// extensions (e.g. ".txt,.md"). The directory is created if missing.
func NewWatcher(dir, extensions string, ingester Ingester, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	exts := make(map[string]bool)
	for _, e := range strings.Split(extensions, ",") {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			exts[e] = true
		}
	}

	return &Watcher{
		watcher:    fsWatcher,
		dir:        dir,
		extensions: exts,
		ingester:   ingester,
		logger:     logger,
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Start runs the watch loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					w.schedule(ctx, event.Name)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()
}

// schedule debounces per path and then hands the file to the ingester.
func (w *Watcher) schedule(ctx context.Context, path string) {
	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	att := models.Attachment{
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Path:     path,
	}
	chunks, err := w.ingester.Ingest(ctx, att)
	if err != nil {
		w.logger.Error("failed to ingest document",
			zap.String("file", att.FileName), zap.Error(err))
		return
	}
	w.logger.Info("document picked up from docs directory",
		zap.String("file", att.FileName), zap.Int("chunks", chunks))
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
