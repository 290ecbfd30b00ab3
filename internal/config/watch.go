package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Watcher calls OnChange after any watched config file is written.
// Parent directories are watched so editors that replace files are seen.
type Watcher struct {
	paths    []string
	debounce time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context)
}

// NewWatcher watches paths; onChange runs at most once per debounce window.
func NewWatcher(paths []string, logger *slog.Logger, onChange func(ctx context.Context)) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		paths:    paths,
		debounce: defaultWatchDebounce,
		logger:   logger.With("component", "config_watch"),
		onChange: onChange,
	}
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.paths) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]struct{}, len(w.paths))
	dirs := make(map[string]struct{})
	for _, path := range w.paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("watching config directory", "dir", dir)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := targets[abs]; !ok {
				continue
			}
			w.logger.Debug("config file changed", "path", abs, "op", event.Op.String())

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				w.onChange(ctx)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
