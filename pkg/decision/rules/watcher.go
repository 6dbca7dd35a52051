package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a rules path for changes and triggers reloads through
// a debouncer so editor save storms do not produce reload storms.
type Watcher struct {
	watcher  *fsnotify.Watcher
	source   *FileSource
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a watcher over the source's path.
func NewWatcher(source *FileSource, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		watcher:  fsw,
		source:   source,
		logger:   slog.Default().With("component", "decision.rules"),
		debounce: debounce,
		stopCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until the context is cancelled or Stop is called. Each
// debounced change reloads the rule set; a load failure keeps the
// previous set in effect and is reported to onError when non-nil.
func (w *Watcher) Watch(ctx context.Context, onReload func(*RuleSet), onError func(error)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.addPath(w.source.path); err != nil {
		return fmt.Errorf("watch rules path: %w", err)
	}

	w.logger.Info("rules watcher started",
		"path", w.source.path,
		"debounce_ms", w.debounce.Milliseconds())

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	reload := func() {
		set, err := w.source.Load()
		if err != nil {
			w.logger.Error("rules reload failed, keeping previous set", "error", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		w.logger.Info("rules reloaded", "rules", set.Len())
		onReload(set)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !relevantEvent(event) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("rules watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if running {
		close(w.stopCh)
	}
	return w.watcher.Close()
}

func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watch the parent so atomic renames by editors are seen.
		return w.watcher.Add(filepath.Dir(path))
	}
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(p), ".") && p != path {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return ext == ".yaml" || ext == ".yml"
}
