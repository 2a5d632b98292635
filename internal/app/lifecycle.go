package app

import (
	"context"
	"errors"
	"io/fs"

	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
)

func (e *Engine) feeder() hive.Feeder {
	return func(keys string, noremap bool) error {
		return e.proc.FeedKeys(keys, dispatch.FeedOptions{NoRemap: noremap})
	}
}

func (e *Engine) loadMappings(path string) {
	n, err := e.loader.LoadFile(path)
	if err != nil {
		e.problem("mappings", path, err)
		return
	}
	e.logger.Info("loaded %d mappings from %s", n, path)
}

func (e *Engine) loadPlugin(path string) {
	if _, err := e.plugins.Load(path); err != nil {
		e.problem("plugins", path, err)
	}
}

// ProcessKey dispatches one typed key.
func (e *Engine) ProcessKey(ev key.Event) dispatch.Result {
	return e.proc.ProcessKey(dispatch.Input{Event: ev})
}

// Feed runs keys through dispatch.
func (e *Engine) Feed(keys string, opts dispatch.FeedOptions) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.proc.FeedKeys(keys, opts)
}

// Execute runs a command line through the command registry.
func (e *Engine) Execute(cmdline string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.commands.Execute(cmdline, command.Context{})
}

// Reload rereads the settings file and applies it. On error the previous
// settings stay in effect.
func (e *Engine) Reload() error {
	if err := e.settings.Reload(); err != nil {
		return err
	}
	e.applySettings()
	return nil
}

// applySettings pushes reloadable settings into the components that cache
// them. The leader only affects bindings added afterwards.
func (e *Engine) applySettings() {
	e.hives.SetLeader(e.settings.Leader())
	if e.opts.Logger == nil {
		e.logger.SetLevel(ParseLogLevel(e.settings.Values().LogLevel))
	}
	if err := e.proc.SetSite(e.proc.Site()); err != nil {
		e.problem("settings", "passkeys", err)
	}
	e.logger.Info("settings applied")
}

// Watch reloads the settings whenever the file changes, until ctx is done.
// post runs the follow-up work on the dispatch goroutine; nil runs it
// inline. Watch returns at once when the engine was built without Watch.
func (e *Engine) Watch(ctx context.Context, post func(func()) bool) error {
	if e.watcher == nil {
		return nil
	}
	return e.watcher.Run(ctx, func(err error) {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.logger.Warn("settings file %s is gone, keeping the current settings", e.settings.Path())
			return
		case err != nil:
			e.problem("settings", e.settings.Path(), err)
			return
		}
		if post == nil {
			e.applySettings()
			return
		}
		post(e.applySettings)
	})
}

// Close unloads plugins and releases the macro store and watcher.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	errs = append(errs, e.plugins.Close())
	e.proc.Close()
	errs = append(errs, e.store.Close())
	return errors.Join(errs...)
}
