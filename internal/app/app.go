// Package app constructs the engine context: the mode and hive registries,
// the dispatch processor, macros, settings and plugins, wired together
// with the builtin bindings. Several engines can coexist; nothing here is
// global.
package app

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/config"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/macro"
	"github.com/dshills/keyhive/internal/input/mode"
	"github.com/dshills/keyhive/internal/plugin/lua"
)

// Engine owns every registry of one keyboard session.
type Engine struct {
	mu sync.Mutex

	logger   *Logger
	settings *config.Settings
	watcher  *config.Watcher

	modes    *mode.Registry
	stack    *mode.Stack
	hives    *hive.Registry
	commands *command.Registry
	proc     *dispatch.Processor
	loader   *hive.Loader

	store    macro.Store
	recorder *macro.Recorder
	player   *macro.Player

	plugins *lua.Host

	// problems collects mapping files and plugins that failed to load.
	problems []error

	closed atomic.Bool
	opts   Options
}

// Options configures an Engine.
type Options struct {
	// ConfigPath is the TOML settings file. Empty means defaults.
	ConfigPath string

	// Settings replaces loading ConfigPath.
	Settings *config.Settings

	// Host receives unmapped keys.
	Host dispatch.Host

	// Scheduler runs the disambiguation timer. Interactive sessions pass
	// a dispatch.Loop; tests and headless feeding leave it nil.
	Scheduler dispatch.Scheduler

	// Logger defaults to a logger built from the log_level setting.
	Logger *Logger

	// OnStatus receives the pending key sequence.
	OnStatus func(pending string)

	// OnRecording is called when macro recording starts or stops.
	OnRecording func(slot rune, recording bool)

	// OnError receives action errors in addition to the log.
	OnError func(error)

	// Watch reloads the settings file when it changes. It needs
	// ConfigPath.
	Watch bool
}

// New builds an engine. A failure to build any component is returned as
// an *InitError and releases what was built. Mapping files and plugins
// that fail to load are logged and listed by Problems.
func New(opts Options) (*Engine, error) {
	e := &Engine{opts: opts}
	b := newBootstrapper(e)
	if err := b.bootstrap(); err != nil {
		return nil, err
	}
	return e, nil
}

// Logger returns the engine logger.
func (e *Engine) Logger() *Logger { return e.logger }

// Settings returns the settings store.
func (e *Engine) Settings() *config.Settings { return e.settings }

// Modes returns the mode registry.
func (e *Engine) Modes() *mode.Registry { return e.modes }

// Stack returns the mode stack.
func (e *Engine) Stack() *mode.Stack { return e.stack }

// Hives returns the mapping aggregator.
func (e *Engine) Hives() *hive.Registry { return e.hives }

// Commands returns the command registry.
func (e *Engine) Commands() *command.Registry { return e.commands }

// Processor returns the key dispatch processor.
func (e *Engine) Processor() *dispatch.Processor { return e.proc }

// Recorder returns the macro recorder.
func (e *Engine) Recorder() *macro.Recorder { return e.recorder }

// Player returns the macro player.
func (e *Engine) Player() *macro.Player { return e.player }

// Plugins returns the Lua plugin host.
func (e *Engine) Plugins() *lua.Host { return e.plugins }

// Problems returns the non-fatal load failures seen so far.
func (e *Engine) Problems() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.problems...)
}

func (e *Engine) problem(component, action string, err error) {
	cerr := &ComponentError{Component: component, Action: action, Err: err}
	e.logger.Error("%v", cerr)
	e.mu.Lock()
	e.problems = append(e.problems, cerr)
	e.mu.Unlock()
}
