package mode

import (
	"errors"
	"fmt"
)

// ErrReentrantTransition is returned when a hook tries to push or pop while
// another transition is running.
var ErrReentrantTransition = errors.New("mode transition already in progress")

// Transition describes a stack change to enter and leave hooks.
type Transition struct {
	// Push is the frame being pushed, for leave hooks of the outgoing top.
	Push *Frame

	// Pop is the frame being removed.
	Pop *Frame

	// Prev is the frame that was on top before the change.
	Prev *Frame

	// Extra carries caller-supplied values from Pop and Replace.
	Extra map[string]any
}

// Hook runs during a transition.
type Hook func(t Transition) error

// Params is the per-frame parameter bag. A pushed frame starts from a copy
// of the current top's params with the non-zero fields of the pushed
// params layered on.
type Params struct {
	OnEnter Hook
	OnLeave Hook

	// KeyModes are consulted for bindings before the main mode.
	KeyModes []*Mode

	Values map[string]any
}

func (p Params) merge(over Params) Params {
	out := p
	if over.OnEnter != nil {
		out.OnEnter = over.OnEnter
	}
	if over.OnLeave != nil {
		out.OnLeave = over.OnLeave
	}
	if over.KeyModes != nil {
		out.KeyModes = over.KeyModes
	}
	if len(p.Values) > 0 || len(over.Values) > 0 {
		out.Values = make(map[string]any, len(p.Values)+len(over.Values))
		for k, v := range p.Values {
			out.Values[k] = v
		}
		for k, v := range over.Values {
			out.Values[k] = v
		}
	}
	return out
}

// Frame is one entry of the mode stack.
type Frame struct {
	Main     *Mode
	Extended uint64
	Params   Params

	saved map[string]any
}

// HasExtended reports whether the extended mode m is set on the frame.
func (f *Frame) HasExtended(m *Mode) bool {
	return m != nil && m.bit != 0 && f.Extended&m.bit != 0
}

// Value returns a parameter value.
func (f *Frame) Value(key string) any {
	return f.Params.Values[key]
}

// Saved returns the value of a bound property captured when the frame
// was pushed.
func (f *Frame) Saved(id string) (any, bool) {
	v, ok := f.saved[id]
	return v, ok
}

// ChangeKind identifies what a stack change did.
type ChangeKind int

const (
	Pushed ChangeKind = iota
	Popped
	ExtendedChanged
)

// Change is delivered to OnChange observers after a transition completes.
type Change struct {
	Kind  ChangeKind
	Frame *Frame
	Top   *Frame
}

// ChangeFunc observes stack changes.
type ChangeFunc func(Change)

// Stack is the runtime stack of mode frames. It always holds at least the
// root frame. A Stack is not safe for concurrent use; all transitions run
// on the dispatch goroutine.
type Stack struct {
	reg    *Registry
	frames []*Frame

	bound   []*boundProperty
	boundID map[string]int

	inTransition bool
	observers    []ChangeFunc
}

// NewStack creates a stack whose root frame has main mode root.
func NewStack(reg *Registry, root *Mode) (*Stack, error) {
	if !reg.Contains(root) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, root)
	}
	return &Stack{
		reg:     reg,
		frames:  []*Frame{{Main: root, saved: map[string]any{}}},
		boundID: make(map[string]int),
	}, nil
}

// Registry returns the mode registry the stack resolves against.
func (s *Stack) Registry() *Registry { return s.reg }

// Top returns the top frame.
func (s *Stack) Top() *Frame { return s.frames[len(s.frames)-1] }

// Main returns the main mode of the top frame.
func (s *Stack) Main() *Mode { return s.Top().Main }

// Len returns the number of frames.
func (s *Stack) Len() int { return len(s.frames) }

// Frames returns a copy of the frames, root first.
func (s *Stack) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Have reports whether m is active anywhere on the stack, either as a base
// of a frame's main mode or in its extended mask.
func (s *Stack) Have(m *Mode) bool {
	for _, f := range s.frames {
		if f.Main.Is(m) || f.HasExtended(m) {
			return true
		}
	}
	return false
}

// ActiveModes returns the modes consulted for bindings, highest priority
// first: the top frame's key modes, then its main mode and bases.
func (s *Stack) ActiveModes() []*Mode {
	top := s.Top()
	seen := make(map[ID]bool)
	var out []*Mode
	add := func(m *Mode) {
		if m != nil && !seen[m.id] {
			seen[m.id] = true
			out = append(out, m)
		}
	}
	for _, m := range top.Params.KeyModes {
		add(m)
	}
	for _, m := range s.reg.AllBases(top.Main) {
		add(m)
	}
	return out
}

// OnChange registers an observer. The returned function unregisters it.
func (s *Stack) OnChange(fn ChangeFunc) func() {
	s.observers = append(s.observers, fn)
	index := len(s.observers) - 1
	return func() {
		if index < len(s.observers) {
			s.observers[index] = nil
		}
	}
}

func (s *Stack) notify(c Change) {
	c.Top = s.Top()
	for _, fn := range s.observers {
		if fn != nil {
			fn(c)
		}
	}
}

// set runs one transition. It is the only place the stack changes shape.
func (s *Stack) set(fn func() error) error {
	if s.inTransition {
		return ErrReentrantTransition
	}
	s.inTransition = true
	defer func() { s.inTransition = false }()
	return fn()
}

// Push adds a frame for m. Hook errors are returned but the frame stays
// pushed once it has been appended.
func (s *Stack) Push(m *Mode, ext uint64, params Params) error {
	if !s.reg.Contains(m) {
		return fmt.Errorf("%w: %v", ErrUnknownMode, m)
	}

	var pushed *Frame
	err := s.set(func() error {
		prev := s.Top()
		f := &Frame{
			Main:     m,
			Extended: ext,
			Params:   prev.Params.merge(params),
			saved:    make(map[string]any, len(s.bound)),
		}

		var errs []error
		if prev.Params.OnLeave != nil {
			if err := prev.Params.OnLeave(Transition{Push: f, Prev: prev}); err != nil {
				errs = append(errs, fmt.Errorf("leave %s: %w", prev.Main.Name(), err))
			}
		}
		for _, b := range s.bound {
			f.saved[b.id] = b.acc.Get()
		}
		s.frames = append(s.frames, f)
		pushed = f

		if f.Params.OnEnter != nil {
			if err := f.Params.OnEnter(Transition{Prev: prev}); err != nil {
				errs = append(errs, fmt.Errorf("enter %s: %w", m.Name(), err))
			}
		}
		return errors.Join(errs...)
	})
	if pushed != nil {
		s.notify(Change{Kind: Pushed, Frame: pushed})
	}
	return err
}

// Pop removes frames until target is the main mode on top, or removes the
// top frame once if target is nil. The root frame is never removed.
func (s *Stack) Pop(target *Mode, extra map[string]any) error {
	return s.popWhile(extra, func(top *Frame) (pop, more bool) {
		if target == nil {
			return true, false
		}
		return top.Main != target, true
	})
}

// Reset pops every frame above the root.
func (s *Stack) Reset() error {
	return s.popWhile(nil, func(*Frame) (bool, bool) { return true, true })
}

// Replace pops down to old, if given, swaps out the top frame and pushes m.
func (s *Stack) Replace(m *Mode, old *Mode, extra map[string]any) error {
	if !s.reg.Contains(m) {
		return fmt.Errorf("%w: %v", ErrUnknownMode, m)
	}
	if old != nil {
		if err := s.Pop(old, extra); err != nil {
			return err
		}
	}
	if s.Len() > 1 {
		if err := s.Pop(nil, extra); err != nil {
			return err
		}
	}
	return s.Push(m, 0, Params{Values: extra})
}

func (s *Stack) popWhile(extra map[string]any, cond func(top *Frame) (pop, more bool)) error {
	var popped []*Frame
	err := s.set(func() error {
		var errs []error
		for len(s.frames) > 1 {
			f := s.Top()
			pop, more := cond(f)
			if !pop {
				break
			}
			s.frames = s.frames[:len(s.frames)-1]
			popped = append(popped, f)

			if f.Params.OnLeave != nil {
				if err := f.Params.OnLeave(Transition{Pop: f, Extra: extra}); err != nil {
					errs = append(errs, fmt.Errorf("leave %s: %w", f.Main.Name(), err))
				}
			}
			s.restore(f)

			top := s.Top()
			if top.Params.OnEnter != nil {
				if err := top.Params.OnEnter(Transition{Pop: f, Prev: f, Extra: extra}); err != nil {
					errs = append(errs, fmt.Errorf("enter %s: %w", top.Main.Name(), err))
				}
			}
			if !more {
				break
			}
		}
		return errors.Join(errs...)
	})
	for _, f := range popped {
		s.notify(Change{Kind: Popped, Frame: f})
	}
	return err
}

// AddExtended sets the extended mode m on the top frame.
func (s *Stack) AddExtended(m *Mode) error {
	return s.setExtended(m, true)
}

// RemoveExtended clears the extended mode m on the top frame.
func (s *Stack) RemoveExtended(m *Mode) error {
	return s.setExtended(m, false)
}

func (s *Stack) setExtended(m *Mode, on bool) error {
	if !s.reg.Contains(m) || m.bit == 0 {
		return fmt.Errorf("%w: %v is not an extended mode", ErrUnknownMode, m)
	}
	err := s.set(func() error {
		if on {
			s.Top().Extended |= m.bit
		} else {
			s.Top().Extended &^= m.bit
		}
		return nil
	})
	if err == nil {
		s.notify(Change{Kind: ExtendedChanged, Frame: s.Top()})
	}
	return err
}
