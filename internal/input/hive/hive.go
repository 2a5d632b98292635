package hive

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

// Mutation errors
var (
	ErrNoModes   = errors.New("no modes given")
	ErrNoNames   = errors.New("no key names given")
	ErrEmptyName = errors.New("empty key name")
	ErrNoAction  = errors.New("binding has no action")
)

// leaderToken is replaced by the leader key when names are added.
const leaderToken = "<leader>"

// Hive is a named collection of bindings.
type Hive struct {
	name        string
	description string
	context     string
	builtin     bool
	filter      func(site string) bool

	modes  *mode.Registry
	leader func() string

	stacks map[mode.ID]*modeStack
}

// modeStack is one mode's binding list and its indexes.
type modeStack struct {
	bindings []*Binding

	exact map[string]*Binding
	soft  map[string]int
	hard  map[string]int
}

// Option configures a Hive.
type Option func(*Hive)

// WithDescription sets the hive description.
func WithDescription(desc string) Option {
	return func(h *Hive) { h.description = desc }
}

// WithContext sets the id of the plugin or group that owns the hive.
func WithContext(id string) Option {
	return func(h *Hive) { h.context = id }
}

// WithFilter limits the hive to sites accepted by fn.
func WithFilter(fn func(site string) bool) Option {
	return func(h *Hive) { h.filter = fn }
}

// AsBuiltin marks the hive as builtin. Builtin hives allow several
// bindings with the same name; the last one added wins lookups.
func AsBuiltin() Option {
	return func(h *Hive) { h.builtin = true }
}

// New creates a standalone hive resolving modes against reg.
func New(name string, reg *mode.Registry, opts ...Option) *Hive {
	h := &Hive{
		name:    name,
		context: uuid.NewString(),
		modes:   reg,
		leader:  func() string { return `\` },
		stacks:  make(map[mode.ID]*modeStack),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the hive name.
func (h *Hive) Name() string { return h.name }

// Description returns the hive description.
func (h *Hive) Description() string { return h.description }

// Context returns the id of the owning plugin or group.
func (h *Hive) Context() string { return h.context }

// Builtin reports whether this is a builtin hive.
func (h *Hive) Builtin() bool { return h.builtin }

// Accepts reports whether the hive is active for site.
func (h *Hive) Accepts(site string) bool {
	return h.filter == nil || h.filter(site)
}

// Add creates a binding for names in modes. In non-builtin hives any
// existing binding with the same name in a target mode is removed first.
func (h *Hive) Add(modes []*mode.Mode, names []string, desc string, action Action, opts ...BindingOption) (*Binding, error) {
	if len(modes) == 0 {
		return nil, ErrNoModes
	}
	unique := make([]*mode.Mode, 0, len(modes))
	for _, m := range modes {
		if !h.modes.Contains(m) {
			return nil, fmt.Errorf("%w: %v", mode.ErrUnknownMode, m)
		}
		if !slices.Contains(unique, m) {
			unique = append(unique, m)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoNames
	}

	b := &Binding{
		hive:        h,
		modes:       unique,
		Description: desc,
		action:      action,
	}
	for _, opt := range opts {
		opt(b)
	}
	if action == nil && !b.Has(FlagPassThrough) {
		return nil, fmt.Errorf("%w: %s", ErrNoAction, strings.Join(names, ", "))
	}

	for _, n := range names {
		c := key.Canonicalize(h.expandLeader(n))
		if c == "" {
			return nil, ErrEmptyName
		}
		if !slices.Contains(b.names, c) {
			b.names = append(b.names, c)
		}
	}

	for _, m := range b.modes {
		st := h.stack(m)
		if !h.builtin {
			for _, n := range b.names {
				h.removeName(st, m, n)
			}
		}
		st.bindings = append(st.bindings, b)
		st.rebuild()
	}
	return b, nil
}

// Remove drops name from the binding registered for it in m. A binding
// left with no names is removed. Reports whether anything was removed.
func (h *Hive) Remove(m *mode.Mode, name string) bool {
	st, ok := h.stacks[m.ID()]
	if !ok {
		return false
	}
	if !h.removeName(st, m, key.Canonicalize(h.expandLeader(name))) {
		return false
	}
	st.rebuild()
	return true
}

// removeName drops name from the last binding in st that has it. A binding
// shared with other modes is split so the other modes keep the name.
func (h *Hive) removeName(st *modeStack, m *mode.Mode, name string) bool {
	for i := len(st.bindings) - 1; i >= 0; i-- {
		b := st.bindings[i]
		j := slices.Index(b.names, name)
		if j < 0 {
			continue
		}
		if len(b.modes) > 1 {
			b.modes = slices.DeleteFunc(b.modes, func(x *mode.Mode) bool { return x == m })
			b = b.clone(m)
			st.bindings[i] = b
		}
		b.names = slices.Delete(b.names, j, j+1)
		if len(b.names) == 0 {
			st.bindings = slices.Delete(st.bindings, i, i+1)
		}
		return true
	}
	return false
}

// Clear removes every binding in m.
func (h *Hive) Clear(m *mode.Mode) {
	st, ok := h.stacks[m.ID()]
	if !ok {
		return
	}
	for _, b := range st.bindings {
		b.modes = slices.DeleteFunc(b.modes, func(x *mode.Mode) bool { return x == m })
	}
	st.bindings = nil
	st.rebuild()
}

// Get returns the binding for a canonical name in m, or nil. With
// skipPassThrough, pass-through bindings are treated as absent.
func (h *Hive) Get(m *mode.Mode, name string, skipPassThrough bool) *Binding {
	st, ok := h.stacks[m.ID()]
	if !ok {
		return nil
	}
	b := st.exact[name]
	if b != nil && skipPassThrough && b.Has(FlagPassThrough) {
		return nil
	}
	return b
}

// Candidates returns how many names in m have prefix as a strict prefix.
// With skipPassThrough the hard count is returned.
func (h *Hive) Candidates(m *mode.Mode, prefix string, skipPassThrough bool) int {
	st, ok := h.stacks[m.ID()]
	if !ok {
		return 0
	}
	if skipPassThrough {
		return st.hard[prefix]
	}
	return st.soft[prefix]
}

// Bindings returns the bindings registered in m, oldest first.
func (h *Hive) Bindings(m *mode.Mode) []*Binding {
	st, ok := h.stacks[m.ID()]
	if !ok {
		return nil
	}
	return slices.Clone(st.bindings)
}

// Modes returns the modes that hold at least one binding.
func (h *Hive) Modes() []*mode.Mode {
	var out []*mode.Mode
	for _, m := range h.modes.All() {
		if st, ok := h.stacks[m.ID()]; ok && len(st.bindings) > 0 {
			out = append(out, m)
		}
	}
	return out
}

func (h *Hive) stack(m *mode.Mode) *modeStack {
	st, ok := h.stacks[m.ID()]
	if !ok {
		st = &modeStack{}
		h.stacks[m.ID()] = st
	}
	return st
}

func (h *Hive) expandLeader(name string) string {
	lower := strings.ToLower(name)
	if !strings.Contains(lower, leaderToken) {
		return name
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, leaderToken)
		if i < 0 {
			b.WriteString(name)
			return b.String()
		}
		b.WriteString(name[:i])
		b.WriteString(h.leader())
		name = name[i+len(leaderToken):]
		lower = lower[i+len(leaderToken):]
	}
}

// rebuild recomputes the indexes from the binding list.
func (st *modeStack) rebuild() {
	st.exact = make(map[string]*Binding, len(st.bindings))
	st.soft = make(map[string]int)
	st.hard = make(map[string]int)

	for _, b := range st.bindings {
		for _, name := range b.names {
			tokens := key.Tokenize(name)
			prefix := ""
			for _, tok := range tokens[:len(tokens)-1] {
				prefix += tok
				st.soft[prefix]++
				if !b.Has(FlagPassThrough) {
					st.hard[prefix]++
				}
			}
			st.exact[name] = b
		}
	}
}
