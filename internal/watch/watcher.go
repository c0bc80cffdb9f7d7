// Package watch turns file system writes in spec directories into save
// events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"crspec/internal/discovery"
	"crspec/internal/execution"
)

// SaveHandler receives debounced saves
type SaveHandler interface {
	HandleSave(ctx context.Context, path string) (bool, error)
}

// Watcher watches spec directories and reports saved files to a handler.
// Saves are debounced per file.
type Watcher struct {
	watcher *fsnotify.Watcher
	handler SaveHandler
	scanner *discovery.Scanner
	logger  zerolog.Logger
	delay   time.Duration

	mu         sync.Mutex
	debouncers map[string]func(func())
}

// New creates a new Watcher
func New(handler SaveHandler, scanner *discovery.Scanner, logger zerolog.Logger, delay time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		watcher:    watcher,
		handler:    handler,
		scanner:    scanner,
		logger:     logger,
		delay:      delay,
		debouncers: make(map[string]func(func())),
	}, nil
}

// Add watches every directory of the spec directory of a workspace and
// returns the number of spec files found in it.
func (w *Watcher) Add(workspaceRoot, specDir string) (int, error) {
	tree, err := w.scanner.Scan(workspaceRoot, specDir)
	if err != nil {
		return 0, err
	}

	for _, dir := range tree.Dirs {
		if err := w.watcher.Add(dir); err != nil {
			return 0, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.logger.Debug().Str("workspace", workspaceRoot).Int("dirs", len(tree.Dirs)).Int("files", len(tree.Files)).Msg("watching spec directory")
	return len(tree.Files), nil
}

// Run processes events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
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
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
			}
		}
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule delivers a debounced save of path. A save that finds crystal
// busy is scheduled again. Nothing is delivered once ctx is done.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.debouncerFor(path)(func() {
		if ctx.Err() != nil {
			return
		}
		handled, err := w.handler.HandleSave(ctx, path)
		if errors.Is(err, execution.ErrAlreadyExecuting) {
			w.logger.Debug().Str("file", path).Msg("crystal is busy, retrying save")
			w.schedule(ctx, path)
			return
		}
		if err != nil {
			w.logger.Error().Err(err).Str("file", path).Msg("rediscovery after save failed")
			return
		}
		if handled {
			w.logger.Info().Str("file", path).Msg("rediscovered saved spec file")
		}
	})
}

func (w *Watcher) debouncerFor(path string) func(func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.debouncers[path]
	if !ok {
		d = debounce.New(w.delay)
		w.debouncers[path] = d
	}
	return d
}
