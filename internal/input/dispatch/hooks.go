package dispatch

import (
	"sort"
	"sync"

	"github.com/dshills/keyhive/internal/input/hive"
)

// Hook observes and intercepts dispatch.
type Hook interface {
	// PreKey is called before a key is processed. Return true to consume
	// the key.
	PreKey(in *Input) bool

	// PostKey is called with the result of processing a key.
	PostKey(in Input, res Result)

	// PreExecute is called before a binding's action runs.
	PreExecute(args *hive.Args)

	// PostExecute is called after a binding's action returns, even if it
	// failed.
	PostExecute(args *hive.Args, err error)
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
	// HookPriorityLowest runs after all other hooks.
	HookPriorityLowest HookPriority = 1000
)

// HookID uniquely identifies a registered hook.
type HookID uint64

// HookRegistration holds metadata about a registered hook.
type HookRegistration struct {
	ID       HookID
	Name     string
	Priority HookPriority
	Hook     Hook
}

// HookManager holds hooks ordered by priority. Hooks with equal priority
// run in registration order.
type HookManager struct {
	mu      sync.RWMutex
	hooks   []HookRegistration
	nextID  HookID
	enabled bool
}

// NewHookManager creates an empty, enabled hook manager.
func NewHookManager() *HookManager {
	return &HookManager{enabled: true}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithPriority adds a hook with specified priority.
func (m *HookManager) RegisterWithPriority(hook Hook, priority HookPriority) HookID {
	return m.RegisterWithOptions(hook, "", priority)
}

// RegisterWithOptions adds a hook with all options specified. A named hook
// replaces an earlier hook of the same name.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name != "" {
		m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
	}

	m.nextID++
	m.hooks = append(m.hooks, HookRegistration{
		ID:       m.nextID,
		Name:     name,
		Priority: priority,
		Hook:     hook,
	})
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].Priority < m.hooks[j].Priority
	})
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.ID == id })
}

// UnregisterByName removes a hook by name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(func(r HookRegistration) bool { return r.Name == name })
}

func (m *HookManager) removeLocked(match func(HookRegistration) bool) bool {
	for i, r := range m.hooks {
		if match(r) {
			m.hooks = append(m.hooks[:i], m.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled enables or disables all hooks.
func (m *HookManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// List returns all hook registrations in execution order.
func (m *HookManager) List() []HookRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]HookRegistration, len(m.hooks))
	copy(result, m.hooks)
	return result
}

// snapshot copies the hooks so they can run without the lock held. Hooks
// may register or remove hooks.
func (m *HookManager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.enabled || len(m.hooks) == 0 {
		return nil
	}
	hooks := make([]Hook, len(m.hooks))
	for i := range m.hooks {
		hooks[i] = m.hooks[i].Hook
	}
	return hooks
}

// RunPreKey runs PreKey hooks in priority order. It returns true as soon as
// one consumes the key.
func (m *HookManager) RunPreKey(in *Input) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKey(in) {
			return true
		}
	}
	return false
}

// RunPostKey runs PostKey hooks in priority order.
func (m *HookManager) RunPostKey(in Input, res Result) {
	for _, hook := range m.snapshot() {
		hook.PostKey(in, res)
	}
}

// RunPreExecute runs PreExecute hooks in priority order.
func (m *HookManager) RunPreExecute(args *hive.Args) {
	for _, hook := range m.snapshot() {
		hook.PreExecute(args)
	}
}

// RunPostExecute runs PostExecute hooks in priority order.
func (m *HookManager) RunPostExecute(args *hive.Args, err error) {
	for _, hook := range m.snapshot() {
		hook.PostExecute(args, err)
	}
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreKey is a no-op that does not consume keys.
func (BaseHook) PreKey(*Input) bool { return false }

// PostKey is a no-op.
func (BaseHook) PostKey(Input, Result) {}

// PreExecute is a no-op.
func (BaseHook) PreExecute(*hive.Args) {}

// PostExecute is a no-op.
func (BaseHook) PostExecute(*hive.Args, error) {}

// FuncHook wraps functions into a Hook interface implementation.
type FuncHook struct {
	PreKeyFunc      func(*Input) bool
	PostKeyFunc     func(Input, Result)
	PreExecuteFunc  func(*hive.Args)
	PostExecuteFunc func(*hive.Args, error)
}

// PreKey calls PreKeyFunc if set.
func (h FuncHook) PreKey(in *Input) bool {
	if h.PreKeyFunc != nil {
		return h.PreKeyFunc(in)
	}
	return false
}

// PostKey calls PostKeyFunc if set.
func (h FuncHook) PostKey(in Input, res Result) {
	if h.PostKeyFunc != nil {
		h.PostKeyFunc(in, res)
	}
}

// PreExecute calls PreExecuteFunc if set.
func (h FuncHook) PreExecute(args *hive.Args) {
	if h.PreExecuteFunc != nil {
		h.PreExecuteFunc(args)
	}
}

// PostExecute calls PostExecuteFunc if set.
func (h FuncHook) PostExecute(args *hive.Args, err error) {
	if h.PostExecuteFunc != nil {
		h.PostExecuteFunc(args, err)
	}
}

// LoggingHook logs keys and executions at debug level.
type LoggingHook struct {
	BaseHook
	Logger Logger
}

// PostKey logs the outcome of a key.
func (h LoggingHook) PostKey(in Input, res Result) {
	if h.Logger == nil || res.State == StateIdle {
		return
	}
	h.Logger.Debug("key %s -> %s %s", in.Event, res.State, res.Keys)
}

// PostExecute logs each execution.
func (h LoggingHook) PostExecute(args *hive.Args, err error) {
	if h.Logger != nil {
		h.Logger.Debug("executed %s count=%d err=%v", args.Keys, args.Count, err)
	}
}
