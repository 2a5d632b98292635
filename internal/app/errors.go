package app

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrUsage is returned by builtin commands given the wrong arguments.
	ErrUsage = errors.New("usage")
)

// InitError is a failure to construct one of the engine's components.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ComponentError is a non-fatal failure reported by a component, such as a
// mapping file or plugin that did not load.
type ComponentError struct {
	Component string // e.g. "mappings", "plugins", "settings"
	Action    string // what was being done, usually a path
	Err       error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// usage returns an ErrUsage for a builtin command.
func usage(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}
