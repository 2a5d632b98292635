package mode

import (
	"errors"
	"fmt"
	"sync"
)

// Registration errors
var (
	ErrUnknownMode     = errors.New("unknown mode")
	ErrDuplicateMode   = errors.New("mode already registered")
	ErrDuplicateChar   = errors.New("mode char already registered")
	ErrEmptyModeName   = errors.New("empty mode name")
	ErrModeIsBase      = errors.New("mode is a base of another mode")
	ErrTooManyExtended = errors.New("too many extended modes")
)

const maxExtendedModes = 64

// Registry holds mode identities. Modes are stored in an arena indexed by
// ID; retracted modes leave a nil slot so IDs are never reused.
type Registry struct {
	mu sync.RWMutex

	modes  []*Mode
	byName map[string]*Mode
	byChar map[rune]*Mode

	// extended counts extended-mask bits handed out so far.
	extended int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Mode),
		byChar: make(map[rune]*Mode),
	}
}

// Register creates a mode built on the named bases. Bases must already be
// registered, which keeps the graph acyclic.
func (r *Registry) Register(name string, bases []string, opts ...Option) (*Mode, error) {
	if name == "" {
		return nil, ErrEmptyModeName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateMode, name)
	}

	m := &Mode{id: ID(len(r.modes)), name: name}
	for _, opt := range opts {
		opt(m)
	}
	if m.char != 0 {
		if other, ok := r.byChar[m.char]; ok {
			return nil, fmt.Errorf("%w: %q used by %s", ErrDuplicateChar, m.char, other.name)
		}
	}

	for _, bn := range bases {
		b, ok := r.byName[bn]
		if !ok {
			return nil, fmt.Errorf("%w: %s (base of %s)", ErrUnknownMode, bn, name)
		}
		m.bases = append(m.bases, b.id)
	}

	if m.Has(FlagExtended) {
		if r.extended >= maxExtendedModes {
			return nil, fmt.Errorf("%w: %s", ErrTooManyExtended, name)
		}
		m.bit = 1 << uint(r.extended)
		r.extended++
	}

	r.modes = append(r.modes, m)
	r.computeClosure(m)
	r.byName[name] = m
	if m.char != 0 {
		r.byChar[m.char] = m
	}
	return m, nil
}

// computeClosure fills m.closure breadth-first from m through its bases.
func (r *Registry) computeClosure(m *Mode) {
	queue := []ID{m.id}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if m.set.has(int(id)) {
			continue
		}
		m.set.add(int(id))
		m.closure = append(m.closure, id)
		queue = append(queue, r.modes[id].bases...)
	}
}

// Unregister retracts a mode. A mode that others are built on cannot be
// retracted.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	for _, other := range r.modes {
		if other == nil || other == m {
			continue
		}
		for _, b := range other.bases {
			if b == m.id {
				return fmt.Errorf("%w: %s is a base of %s", ErrModeIsBase, name, other.name)
			}
		}
	}

	r.modes[m.id] = nil
	delete(r.byName, name)
	if m.char != 0 {
		delete(r.byChar, m.char)
	}
	return nil
}

// Get returns a mode by name, or nil if not found.
func (r *Registry) Get(name string) *Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// ByChar returns the mode tagged with c, or nil.
func (r *Registry) ByChar(c rune) *Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byChar[c]
}

// Lookup resolves a mode by name, falling back to a one-character tag.
func (r *Registry) Lookup(s string) (*Mode, error) {
	if m := r.Get(s); m != nil {
		return m, nil
	}
	if rs := []rune(s); len(rs) == 1 {
		if m := r.ByChar(rs[0]); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMode, s)
}

// Contains reports whether m is currently registered here.
func (r *Registry) Contains(m *Mode) bool {
	if m == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int(m.id) < len(r.modes) && r.modes[m.id] == m
}

// All returns registered modes in registration order.
func (r *Registry) All() []*Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Mode, 0, len(r.byName))
	for _, m := range r.modes {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Visible returns registered modes that are not hidden.
func (r *Registry) Visible() []*Mode {
	var out []*Mode
	for _, m := range r.All() {
		if !m.Has(FlagHidden) {
			out = append(out, m)
		}
	}
	return out
}

// Bases returns the direct bases of m.
func (r *Registry) Bases(m *Mode) []*Mode {
	return r.resolve(m.bases)
}

// AllBases returns m followed by its transitive bases, nearest first.
func (r *Registry) AllBases(m *Mode) []*Mode {
	return r.resolve(m.closure)
}

func (r *Registry) resolve(ids []ID) []*Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Mode, 0, len(ids))
	for _, id := range ids {
		if m := r.modes[id]; m != nil {
			out = append(out, m)
		}
	}
	return out
}
