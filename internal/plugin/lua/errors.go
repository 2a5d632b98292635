package lua

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrPluginLoaded is returned when loading a plugin name twice.
	ErrPluginLoaded = errors.New("plugin already loaded")

	// ErrUnknownPlugin is returned for a plugin that is not loaded.
	ErrUnknownPlugin = errors.New("unknown plugin")
)

// ScriptError is a failure inside plugin code.
type ScriptError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Op, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
