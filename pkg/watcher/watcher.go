// Package watcher watches the module directory for changes.
//
// Module installs and removals arrive as bursts of filesystem events
// (directories created, files written one by one), so the watcher
// debounces: the callback fires once, after the directory has been quiet
// for the configured interval.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hymofs/hymo/internal/logger"
)

// Watcher watches one directory and invokes a callback after debounced
// change bursts.
type Watcher struct {
	dir      string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New creates a Watcher on dir. The directory must exist.
func New(dir string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, debounce: debounce, fsw: fsw}, nil
}

// Run blocks, invoking onChange after each debounced burst of events,
// until the context is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			logger.Debug("module directory event",
				logger.KeyPath, event.Name,
				logger.KeyType, event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			logger.Warn("watcher error", logger.KeyError, err)

		case <-fire:
			timer = nil
			fire = nil
			onChange()
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
