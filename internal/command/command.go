// Package command provides the command engine that bindings invoke.
//
// A command line is a name followed by arguments, split the way a shell
// splits words: `map n gx "a b"` passes the single argument "a b". A
// backslash escapes the next character outside single quotes, and a word
// starting with # begins a comment. Handlers are registered by exact name.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
)

// Command errors.
var (
	// ErrNoHandler indicates no handler was found for a command.
	ErrNoHandler = errors.New("command: no handler for command")

	// ErrEmptyCommand indicates a blank command line.
	ErrEmptyCommand = errors.New("command: empty command")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("command: handler panic")

	// ErrSyntax indicates a command line that cannot be split, such as
	// one with an unterminated quote.
	ErrSyntax = errors.New("command: syntax error")
)

// Context carries the key state that triggered a command.
type Context struct {
	// Keys is the canonical key sequence of the binding.
	Keys string

	// Count is the typed count, or 0 when none was given.
	Count int

	// Arg is the argument key of an argument-taking binding.
	Arg string

	// Motion is the motion keys of a motion-taking binding.
	Motion string
}

// Engine executes command lines.
type Engine interface {
	Execute(cmdline string, ctx Context) error
}

// Handler runs one command.
type Handler func(args []string, ctx Context) error

// Registry is an Engine backed by handlers registered by name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Unregister removes the handler for name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute parses cmdline and runs its handler.
func (r *Registry) Execute(cmdline string, ctx Context) (err error) {
	fields, err := shlex.Split(cmdline)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if len(fields) == 0 {
		return ErrEmptyCommand
	}
	name := strings.TrimPrefix(fields[0], ":")

	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPanic, name, p)
		}
	}()
	return h(fields[1:], ctx)
}
