// Package watch re-runs a handler when word list files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Handler runs after a burst of changes. Calls never overlap.
type Handler func(ctx context.Context) error

// Watcher triggers a Handler for changes to files matching a set of
// paths or doublestar patterns.
type Watcher struct {
	patterns []string
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	active    bool
	runs      int
	lastRun   *time.Time
	lastError string
	done      chan struct{}
}

// New creates a watcher. A zero debounce uses DefaultDebounce.
func New(patterns []string, handler Handler, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		patterns: patterns,
		handler:  handler,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins watching in a background goroutine. The goroutine exits
// when ctx is cancelled; Done is closed afterwards.
func (w *Watcher) Start(ctx context.Context) error {
	if len(w.patterns) == 0 {
		return errors.New("nothing to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, pattern := range w.patterns {
		if err := addDirs(watcher, pattern); err != nil {
			_ = watcher.Close()
			return err
		}
	}

	w.setActive(true)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(w.done)
		defer w.setActive(false)
		defer watcher.Close()
		return w.loop(ctx, watcher)
	}, lifecycle.WithErrorHandler(func(err error) {
		w.logger.Error("watcher stopped", slog.Any("error", err))
	}))
	return nil
}

// Done is closed when the watch goroutine has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("word list changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			w.run(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) run(ctx context.Context) {
	err := w.handler(ctx)

	now := time.Now()
	w.mu.Lock()
	w.runs++
	w.lastRun = &now
	w.lastError = ""
	if err != nil {
		w.lastError = err.Error()
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("resync after change failed", slog.Any("error", err))
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, pattern := range w.patterns {
		if ok, _ := doublestar.PathMatch(filepath.Clean(pattern), name); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = active
}

// addDirs watches the directories a pattern can match in. Editors often
// replace files instead of writing them, so the parent directory is
// watched rather than the file itself.
func addDirs(watcher *fsnotify.Watcher, pattern string) error {
	if !hasMeta(pattern) {
		dir := filepath.Dir(pattern)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.WalkDir(filepath.FromSlash(base), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
