package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

// Watcher reloads entities when files under the reader's paths
// change. Events are debounced so a burst of writes triggers one
// reload.
type Watcher struct {
	reader *FileReader
	logger *slog.Logger
	onLoad func()
}

// NewWatcher wires a reader to a reload callback. onLoad runs after
// each debounced change batch.
func NewWatcher(reader *FileReader, logger *slog.Logger, onLoad func()) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{reader: reader, logger: logger, onLoad: onLoad}
}

// Watch blocks until the context is cancelled, invoking the reload
// callback on relevant file changes.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range w.reader.Paths() {
		if err := watchDir(watcher, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !validExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				// A new directory still needs a watch.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watchDir(watcher, event.Name)
					}
				}
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceInterval, func() {
				w.logger.Info("reloading entities", "trigger", event.Name)
				if w.onLoad != nil {
					w.onLoad()
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// watchDir adds dir and its subdirectories to the watcher. Plain
// files are watched directly.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(dir)
	}
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if excludeDirs[name] || (path != dir && strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
