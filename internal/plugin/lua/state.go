package lua

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single script run or callback.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a sandboxed gopher-lua state.
//
// gopher-lua's LState is not goroutine-safe. A State must only be used from
// the dispatch goroutine. Calls may nest: a callback can feed keys that run
// another callback on the same state.
type State struct {
	L *lua.LState

	timeout time.Duration
	depth   int
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the deadline for each outermost call.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) { s.timeout = d }
}

// NewState creates a Lua state with only the safe standard libraries.
func NewState(opts ...StateOption) *State {
	s := &State{timeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package stay closed; these load code from disk.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	s.L = L
	return s
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.run(func() error { return s.L.DoFile(path) })
}

// DoString executes Lua source.
func (s *State) DoString(code string) error {
	return s.run(func() error { return s.L.DoString(code) })
}

// CallFunction calls fn with args and returns its first result.
func (s *State) CallFunction(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	ret := lua.LValue(lua.LNil)
	err := s.run(func() error {
		if err := s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	return ret, err
}

// CallGlobal calls the named global function if it exists.
func (s *State) CallGlobal(name string, args ...lua.LValue) (bool, error) {
	if s.closed {
		return false, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return false, nil
	}
	_, err := s.CallFunction(fn, args...)
	return true, err
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	if !s.closed {
		s.L.SetGlobal(name, value)
	}
}

// run applies the deadline to the outermost call and turns panics into
// errors.
func (s *State) run(fn func() error) (err error) {
	if s.closed {
		return ErrStateClosed
	}
	if s.depth == 0 && s.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		s.L.SetContext(ctx)
		defer func() {
			s.L.RemoveContext()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && err != nil {
				err = fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
			}
			cancel()
		}()
	}
	s.depth++
	defer func() {
		s.depth--
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Close releases the Lua state.
func (s *State) Close() error {
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
