package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads Settings when their file changes. It watches the
// containing directory so editors that replace the file by rename are
// noticed too.
type Watcher struct {
	settings *Settings
	file     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	closed bool
}

// NewWatcher starts watching the file s was loaded from.
func NewWatcher(s *Settings) (*Watcher, error) {
	p := s.Path()
	if p == "" {
		return nil, fmt.Errorf("settings were not loaded from a file")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{settings: s, file: abs, watcher: fsw, debounce: 50 * time.Millisecond}, nil
}

// Run reloads on every change until ctx is done or the watcher is closed.
// onReload receives the result of each reload. Removing the file reports
// an error wrapping fs.ErrNotExist and keeps the current values.
func (w *Watcher) Run(ctx context.Context, onReload func(error)) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return ErrWatcherClosed
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
				!ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			// Coalesce bursts of writes into one reload.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			err := w.settings.Reload()
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			if onReload != nil {
				onReload(err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
