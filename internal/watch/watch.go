// Package watch re-runs an action whenever a file changes on disk.
//
// It follows the file through editors and tools that replace it by
// rename or remove-then-create, waiting for the path to reappear before
// watching it again.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounce      = 200 * time.Millisecond
	DefaultRotateTimeout = 10 * time.Second
)

// ErrFileGone is returned when a watched file was removed and did not
// come back before the rotate timeout.
var ErrFileGone = errors.New("watched file did not reappear")

// Options configures the watcher behavior.
type Options struct {
	Path          string                          // File to watch
	Debounce      time.Duration                   // Quiet period before OnChange runs
	RotateTimeout time.Duration                   // How long to wait for a replaced file
	RunOnStart    bool                            // Call OnChange once before watching
	OnChange      func(ctx context.Context) error // Called after each settled change
	Logger        *log.Logger
}

// Watcher calls OnChange each time Path settles after a write.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
	runs    atomic.Int64
}

// New creates a Watcher, filling in defaults for zero durations.
func New(opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.RotateTimeout <= 0 {
		opts.RotateTimeout = DefaultRotateTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}
	return &Watcher{opts: opts}
}

// Runs reports how many times OnChange has been called.
func (w *Watcher) Runs() int64 {
	return w.runs.Load()
}

// Run blocks until ctx is cancelled or the watched file disappears for good.
// Errors from OnChange are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := os.Stat(w.opts.Path); err != nil {
		return fmt.Errorf("failed to stat %s: %w", w.opts.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}
	w.watcher = watcher
	defer watcher.Close()

	if err := watcher.Add(w.opts.Path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Path, err)
	}

	if w.opts.RunOnStart {
		w.fire(ctx)
	}

	w.opts.Logger.Info("watching for changes", "path", w.opts.Path)
	return w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) error {
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				timer.Reset(w.opts.Debounce)

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if err := w.reattach(ctx); err != nil {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
				timer.Reset(w.opts.Debounce)
			}

		case <-timer.C:
			w.fire(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// reattach waits for a replaced file to reappear and watches it again.
func (w *Watcher) reattach(ctx context.Context) error {
	// The old inode may still be registered after a rename.
	_ = w.watcher.Remove(w.opts.Path)

	timeout := time.After(w.opts.RotateTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("%w: %s", ErrFileGone, w.opts.Path)
		case <-ticker.C:
			if _, err := os.Stat(w.opts.Path); err != nil {
				continue
			}
			if err := w.watcher.Add(w.opts.Path); err != nil {
				return fmt.Errorf("failed to watch replaced file: %w", err)
			}
			w.opts.Logger.Debug("file replaced, watching new file", "path", w.opts.Path)
			return nil
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	w.runs.Add(1)
	if w.opts.OnChange == nil {
		return
	}
	if err := w.opts.OnChange(ctx); err != nil {
		w.opts.Logger.Error("change handler failed", "path", w.opts.Path, "err", err)
	}
}
