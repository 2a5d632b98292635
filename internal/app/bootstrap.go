package app

import (
	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/config"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/macro"
	"github.com/dshills/keyhive/internal/input/mode"
	"github.com/dshills/keyhive/internal/plugin/lua"
)

// bootstrapper builds an engine's components in dependency order and
// releases them again when a later step fails.
type bootstrapper struct {
	e         *Engine
	opts      Options
	initOrder []string
}

func newBootstrapper(e *Engine) *bootstrapper {
	return &bootstrapper{
		e:         e,
		opts:      e.opts,
		initOrder: make([]string, 0, 8),
	}
}

func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initSettings,
		b.initModes,
		b.initDispatch,
		b.initMacros,
		b.initDefaults,
		b.initMappings,
		b.initPlugins,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initSettings loads the settings and creates the logger they configure.
func (b *bootstrapper) initSettings() error {
	s := b.opts.Settings
	if s == nil {
		var err error
		if b.opts.ConfigPath == "" {
			s = config.New(config.Default())
		} else if s, err = config.Load(b.opts.ConfigPath); err != nil {
			return &InitError{Component: "settings", Err: err}
		}
	}
	b.e.settings = s

	b.e.logger = b.opts.Logger
	if b.e.logger == nil {
		cfg := DefaultLoggerConfig()
		cfg.Level = ParseLogLevel(s.Values().LogLevel)
		b.e.logger = NewLogger(cfg)
	}
	b.initOrder = append(b.initOrder, "settings")
	return nil
}

// initModes registers the default modes and starts the stack in normal.
func (b *bootstrapper) initModes() error {
	modes := mode.NewRegistry()
	if err := mode.RegisterDefaults(modes); err != nil {
		return &InitError{Component: "modes", Err: err}
	}
	stack, err := mode.NewStack(modes, modes.Get(mode.ModeNormal))
	if err != nil {
		return &InitError{Component: "mode stack", Err: err}
	}
	b.e.modes = modes
	b.e.stack = stack

	b.e.hives = hive.NewRegistry(modes)
	b.e.hives.SetLeader(b.e.settings.Leader())
	b.e.commands = command.NewRegistry()
	b.initOrder = append(b.initOrder, "modes")
	return nil
}

func (b *bootstrapper) initDispatch() error {
	opts := []dispatch.Option{
		dispatch.WithSettings(b.e.settings),
		dispatch.WithLogger(b.e.logger.WithComponent("dispatch")),
	}
	if b.opts.Host != nil {
		opts = append(opts, dispatch.WithHost(b.opts.Host))
	}
	if b.opts.Scheduler != nil {
		opts = append(opts, dispatch.WithScheduler(b.opts.Scheduler))
	}
	if b.opts.OnStatus != nil {
		opts = append(opts, dispatch.WithStatus(b.opts.OnStatus))
	}
	if b.opts.OnError != nil {
		opts = append(opts, dispatch.WithErrorHandler(b.opts.OnError))
	}
	b.e.proc = dispatch.New(b.e.stack, b.e.hives, opts...)
	b.initOrder = append(b.initOrder, "dispatch")
	return nil
}

func (b *bootstrapper) initMacros() error {
	v := b.e.settings.Values()
	store, err := macro.Open(v.Macros.Store, v.Macros.Path)
	if err != nil {
		return &InitError{Component: "macro store", Err: err}
	}
	b.e.store = store

	var recOpts []macro.RecorderOption
	if b.opts.OnRecording != nil {
		recOpts = append(recOpts, macro.WithRecordingStatus(b.opts.OnRecording))
	}
	b.e.recorder = macro.NewRecorder(store, recOpts...)
	b.e.proc.Hooks().RegisterWithOptions(b.e.recorder, "macro", dispatch.HookPriorityNormal)
	b.e.player = macro.NewPlayer(store, b.e.proc)
	b.initOrder = append(b.initOrder, "macros")
	return nil
}

func (b *bootstrapper) initDefaults() error {
	if err := registerCommands(b.e); err != nil {
		return &InitError{Component: "commands", Err: err}
	}
	if err := registerBindings(b.e); err != nil {
		return &InitError{Component: "bindings", Err: err}
	}
	return nil
}

// initMappings applies the configured mapping files. A file that fails to
// load is reported and skipped.
func (b *bootstrapper) initMappings() error {
	b.e.loader = hive.NewLoader(b.e.hives, b.e.commands, b.e.feeder())
	for _, path := range b.e.settings.Values().Mappings {
		b.e.loadMappings(path)
	}
	return nil
}

// initPlugins loads the configured Lua plugins. A plugin that fails to
// load is reported and skipped.
func (b *bootstrapper) initPlugins() error {
	b.e.plugins = lua.NewHost(b.e.stack, b.e.hives, b.e.proc,
		lua.WithLogger(b.e.logger.WithComponent("lua")))
	b.initOrder = append(b.initOrder, "plugins")
	for _, path := range b.e.settings.Values().Plugins {
		b.e.loadPlugin(path)
	}
	return nil
}

func (b *bootstrapper) initWatcher() error {
	if !b.opts.Watch || b.e.settings.Path() == "" {
		return nil
	}
	w, err := config.NewWatcher(b.e.settings)
	if err != nil {
		return &InitError{Component: "settings watcher", Err: err}
	}
	b.e.watcher = w
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup releases initialized components in reverse order.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
	b.initOrder = b.initOrder[:0]
}

func (b *bootstrapper) cleanupComponent(name string) {
	switch name {
	case "watcher":
		b.e.logger.logComponentError("watcher", b.e.watcher.Close())
	case "plugins":
		b.e.logger.logComponentError("lua", b.e.plugins.Close())
	case "macros":
		b.e.logger.logComponentError("macro", b.e.store.Close())
	case "dispatch":
		b.e.proc.Close()
	}
}
