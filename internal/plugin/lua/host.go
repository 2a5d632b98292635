package lua

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/mode"
)

// HivePrefix starts the name of every plugin hive.
const HivePrefix = "plugin:"

// Feeder runs keys through dispatch. *dispatch.Processor implements it.
type Feeder interface {
	FeedKeys(keys string, opts dispatch.FeedOptions) error
}

// Logger is the logging surface plugins write to.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Plugin is a loaded script.
type Plugin struct {
	Name   string
	Path   string
	ID     string
	Loaded time.Time

	state *State
	hive  *hive.Hive
	modes []string
}

// Hive returns the plugin's bindings.
func (p *Plugin) Hive() *hive.Hive { return p.hive }

// Modes returns the names of the modes the plugin registered.
func (p *Plugin) Modes() []string { return slices.Clone(p.modes) }

// Host loads plugins into a stack and hive registry.
type Host struct {
	mu      sync.Mutex
	stack   *mode.Stack
	hives   *hive.Registry
	feeder  Feeder
	logger  Logger
	timeout time.Duration
	plugins map[string]*Plugin
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger for plugin output and lifecycle messages.
func WithLogger(l Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

// WithTimeout sets the execution deadline for plugin code.
func WithTimeout(d time.Duration) HostOption {
	return func(h *Host) { h.timeout = d }
}

// NewHost creates a plugin host.
func NewHost(stack *mode.Stack, hives *hive.Registry, feeder Feeder, opts ...HostOption) *Host {
	h := &Host{
		stack:   stack,
		hives:   hives,
		feeder:  feeder,
		logger:  nopLogger{},
		timeout: DefaultExecutionTimeout,
		plugins: make(map[string]*Plugin),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load runs the script at path as a plugin named after the file.
func (h *Host) Load(path string) (*Plugin, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return h.load(name, path, func(s *State) error { return s.DoFile(path) })
}

// LoadString runs code as a plugin called name.
func (h *Host) LoadString(name, code string) (*Plugin, error) {
	return h.load(name, "", func(s *State) error { return s.DoString(code) })
}

func (h *Host) load(name, path string, run func(*State) error) (*Plugin, error) {
	h.mu.Lock()
	if _, ok := h.plugins[name]; ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrPluginLoaded, name)
	}
	h.mu.Unlock()

	id := uuid.NewString()
	hv, err := h.hives.AddHive(HivePrefix+name,
		hive.WithContext(id),
		hive.WithDescription("Lua plugin "+name))
	if err != nil {
		return nil, err
	}
	p := &Plugin{
		Name:   name,
		Path:   path,
		ID:     id,
		Loaded: time.Now(),
		state:  NewState(WithExecutionTimeout(h.timeout)),
		hive:   hv,
	}
	h.install(p)

	if err := run(p.state); err != nil {
		h.retract(p)
		return nil, &ScriptError{Plugin: name, Op: "load", Err: err}
	}

	h.mu.Lock()
	h.plugins[name] = p
	h.mu.Unlock()
	h.logger.Info("loaded plugin %s (%d bindings)", name, len(bindingsOf(p)))
	return p, nil
}

// Unload calls the plugin's on_unload function if it defines one, then
// drops its hive and modes.
func (h *Host) Unload(name string) error {
	h.mu.Lock()
	p, ok := h.plugins[name]
	if ok {
		delete(h.plugins, name)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}

	var errs []error
	if _, err := p.state.CallGlobal("on_unload"); err != nil {
		errs = append(errs, &ScriptError{Plugin: name, Op: "on_unload", Err: err})
	}
	errs = append(errs, h.retract(p))
	h.logger.Info("unloaded plugin %s", name)
	return errors.Join(errs...)
}

// retract removes everything the plugin added.
func (h *Host) retract(p *Plugin) error {
	var errs []error
	if err := h.hives.RemoveHive(p.hive.Name()); err != nil {
		errs = append(errs, err)
	}
	reg := h.stack.Registry()
	for _, name := range slices.Backward(p.modes) {
		m := reg.Get(name)
		if m == nil {
			continue
		}
		if err := popFrames(h.stack, m); err != nil {
			errs = append(errs, err)
		}
		if err := reg.Unregister(name); err != nil {
			errs = append(errs, err)
		}
	}
	p.state.Close()
	return errors.Join(errs...)
}

// Plugin returns a loaded plugin, or nil.
func (h *Host) Plugin(name string) *Plugin {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plugins[name]
}

// Plugins returns the loaded plugin names in order.
func (h *Host) Plugins() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.plugins))
	for name := range h.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Close unloads every plugin.
func (h *Host) Close() error {
	var errs []error
	for _, name := range h.Plugins() {
		errs = append(errs, h.Unload(name))
	}
	return errors.Join(errs...)
}

// popFrames pops the lowest frame running m and everything above it.
func popFrames(stack *mode.Stack, m *mode.Mode) error {
	idx := slices.IndexFunc(stack.Frames(), func(f *mode.Frame) bool { return f.Main == m })
	if idx <= 0 {
		return nil
	}
	for stack.Len() > idx {
		if err := stack.Pop(nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func bindingsOf(p *Plugin) []*hive.Binding {
	var out []*hive.Binding
	for _, m := range p.hive.Modes() {
		out = append(out, p.hive.Bindings(m)...)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
