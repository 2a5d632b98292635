package hive

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

// ErrRecursiveMapping is returned when a binding is triggered while its own
// action is still running.
var ErrRecursiveMapping = errors.New("attempt to execute mapping recursively")

// Flags describe how a binding consumes keys.
type Flags uint16

const (
	// FlagCount marks a binding that makes use of its count. Every
	// binding receives the typed count whether or not it is set.
	FlagCount Flags = 1 << iota

	// FlagArg makes the binding wait for one argument key.
	FlagArg

	// FlagMotion makes the binding wait for a motion.
	FlagMotion

	// FlagNoRemap resolves the binding's RHS against builtin hives only.
	FlagNoRemap

	// FlagSilent suppresses echoing the RHS.
	FlagSilent

	// FlagUser marks a user-defined binding.
	FlagUser

	// FlagPassThrough hands the matched keys to the host.
	FlagPassThrough

	// FlagNoRepeat keeps the binding from being recorded for repeat.
	FlagNoRepeat
)

// Action runs a binding.
type Action func(args *Args) error

// Args is what an action receives.
type Args struct {
	// Keys is the canonical command, without count digits.
	Keys string

	// Count is the typed count, or 0 when none was given.
	Count int

	// Arg is the argument key for FlagArg bindings.
	Arg string

	// Motion and MotionCount describe the motion for FlagMotion bindings.
	Motion      string
	MotionCount int

	// Events are all events consumed for this invocation.
	Events []key.Event

	// Macro is set when the triggering keys were synthesized.
	Macro bool

	Binding *Binding
}

// CountOr returns the count, or def when no count was typed.
func (a *Args) CountOr(def int) int {
	if a.Count > 0 {
		return a.Count
	}
	return def
}

// Binding associates names with an action in a set of modes.
type Binding struct {
	hive  *Hive
	modes []*mode.Mode
	names []string

	Description string

	// RHS is the literal right-hand side of a user mapping, for listings.
	RHS string

	action Action
	flags  Flags
	argIf  func() bool

	executing bool
}

// BindingOption configures a binding at Add time.
type BindingOption func(*Binding)

// WithFlags adds flags to the binding.
func WithFlags(f Flags) BindingOption {
	return func(b *Binding) { b.flags |= f }
}

// WithArgIf makes the binding take an argument only while fn reports true.
func WithArgIf(fn func() bool) BindingOption {
	return func(b *Binding) { b.argIf = fn }
}

// WithRHS records the literal right-hand side.
func WithRHS(rhs string) BindingOption {
	return func(b *Binding) { b.RHS = rhs }
}

// Hive returns the owning hive.
func (b *Binding) Hive() *Hive { return b.hive }

// Name returns the first name.
func (b *Binding) Name() string {
	if len(b.names) == 0 {
		return ""
	}
	return b.names[0]
}

// Names returns a copy of the names.
func (b *Binding) Names() []string { return slices.Clone(b.names) }

// Modes returns a copy of the modes the binding applies to.
func (b *Binding) Modes() []*mode.Mode { return slices.Clone(b.modes) }

// Flags returns the binding flags.
func (b *Binding) Flags() Flags { return b.flags }

// Has reports whether all of f are set.
func (b *Binding) Has(f Flags) bool { return b.flags&f == f }

// WantsArg reports whether the binding currently takes an argument key.
func (b *Binding) WantsArg() bool {
	if b.argIf != nil {
		return b.argIf()
	}
	return b.Has(FlagArg)
}

// HasName reports whether name is one of the binding's names.
func (b *Binding) HasName(name string) bool {
	return slices.Contains(b.names, name)
}

// Executing reports whether the action is running.
func (b *Binding) Executing() bool { return b.executing }

// Execute runs the action. A binding that is already executing refuses
// with ErrRecursiveMapping. Panics are returned as errors.
func (b *Binding) Execute(args *Args) (err error) {
	if b.executing {
		return fmt.Errorf("%w: %s", ErrRecursiveMapping, b.Name())
	}
	if b.action == nil {
		return nil
	}

	b.executing = true
	defer func() {
		b.executing = false
		if p := recover(); p != nil {
			err = fmt.Errorf("mapping %s panicked: %v", b.Name(), p)
		}
	}()

	args.Binding = b
	return b.action(args)
}

func (b *Binding) appliesTo(m *mode.Mode) bool {
	return slices.Contains(b.modes, m)
}

// clone returns a binding with the same action for a single mode.
func (b *Binding) clone(m *mode.Mode) *Binding {
	c := *b
	c.modes = []*mode.Mode{m}
	c.names = slices.Clone(b.names)
	c.executing = false
	return &c
}
