package hive

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

// Registry errors
var (
	ErrDuplicateHive = errors.New("hive already exists")
	ErrUnknownHive   = errors.New("unknown hive")
	ErrBuiltinHive   = errors.New("cannot remove builtin hive")
)

// Standard hive names.
const (
	BuiltinHive = "builtin"
	UserHive    = "user"
)

// Registry orders hives by priority and answers lookups across them.
type Registry struct {
	mu sync.RWMutex

	modes  *mode.Registry
	hives  []*Hive
	leader string
}

// NewRegistry creates a registry holding the user hive followed by the
// builtin hive.
func NewRegistry(modes *mode.Registry) *Registry {
	r := &Registry{modes: modes, leader: `\`}
	builtin := r.newHive(BuiltinHive, WithDescription("Builtin mappings"), AsBuiltin())
	user := r.newHive(UserHive, WithDescription("User-defined mappings"))
	r.hives = []*Hive{user, builtin}
	return r
}

func (r *Registry) newHive(name string, opts ...Option) *Hive {
	h := New(name, r.modes, opts...)
	h.leader = r.Leader
	return h
}

// Modes returns the mode registry.
func (r *Registry) Modes() *mode.Registry { return r.modes }

// SetLeader sets the key that "<Leader>" expands to in names added later.
func (r *Registry) SetLeader(leader string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leader = key.Canonicalize(leader)
}

// Leader returns the current leader key.
func (r *Registry) Leader() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.leader
}

// AddHive creates a hive ahead of all existing hives.
func (r *Registry) AddHive(name string, opts ...Option) (*Hive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hiveLocked(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateHive, name)
	}
	h := r.newHive(name, opts...)
	r.hives = slices.Insert(r.hives, 0, h)
	return h, nil
}

// RemoveHive drops a hive and every binding in it.
func (r *Registry) RemoveHive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, h := range r.hives {
		if h.name != name {
			continue
		}
		if h.builtin {
			return fmt.Errorf("%w: %s", ErrBuiltinHive, name)
		}
		r.hives = slices.Delete(r.hives, i, i+1)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownHive, name)
}

// Hive returns a hive by name, or nil.
func (r *Registry) Hive(name string) *Hive {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hiveLocked(name)
}

func (r *Registry) hiveLocked(name string) *Hive {
	for _, h := range r.hives {
		if h.name == name {
			return h
		}
	}
	return nil
}

// Builtin returns the builtin hive.
func (r *Registry) Builtin() *Hive { return r.Hive(BuiltinHive) }

// User returns the user hive.
func (r *Registry) User() *Hive { return r.Hive(UserHive) }

// Hives returns all hives in priority order.
func (r *Registry) Hives() []*Hive {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hives)
}

// Active returns the hives whose filter accepts site, in priority order.
func (r *Registry) Active(site string) []*Hive {
	var out []*Hive
	for _, h := range r.Hives() {
		if h.Accepts(site) {
			out = append(out, h)
		}
	}
	return out
}

// Get returns the first hive's binding for name in m.
func (r *Registry) Get(m *mode.Mode, name string, skipPassThrough bool) *Binding {
	for _, h := range r.Hives() {
		if b := h.Get(m, name, skipPassThrough); b != nil {
			return b
		}
	}
	return nil
}

// Candidates sums the candidate counts for prefix in m over all hives.
func (r *Registry) Candidates(m *mode.Mode, prefix string, skipPassThrough bool) int {
	n := 0
	for _, h := range r.Hives() {
		n += h.Candidates(m, prefix, skipPassThrough)
	}
	return n
}

// Match is the result of resolving a key sequence.
type Match struct {
	// Binding is the highest-priority exact match, or nil.
	Binding *Binding

	// Candidates and Hard count bindings that extend the sequence.
	Candidates int
	Hard       int
}

// Resolve looks name up in modes and hives, both in priority order. The
// first exact match wins; candidate counts cover every mode and hive.
func Resolve(modes []*mode.Mode, hives []*Hive, name string) Match {
	var match Match
	for _, m := range modes {
		for _, h := range hives {
			if match.Binding == nil {
				match.Binding = h.Get(m, name, false)
			}
			match.Candidates += h.Candidates(m, name, false)
			match.Hard += h.Candidates(m, name, true)
		}
	}
	return match
}
