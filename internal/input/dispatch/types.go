package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
)

// Dispatch errors
var (
	ErrMaxDepth        = errors.New("maximum dispatch depth exceeded")
	ErrUnknownKeys     = errors.New("unknown key sequence")
	ErrInterrupted     = errors.New("interrupted")
	ErrNothingToRepeat = errors.New("nothing to repeat")
	ErrProcessorClosed = errors.New("processor is closed")
)

// State is the outcome of processing one key.
type State uint8

const (
	// StateIdle means nothing is pending.
	StateIdle State = iota
	// StateAccumulating means more keys are needed and no timer runs.
	StateAccumulating
	// StateWaiting means the sequence is ambiguous and a timer runs.
	StateWaiting
	// StateExecuted means a binding ran.
	StateExecuted
	// StateAborted means the sequence was discarded.
	StateAborted
	// StatePassed means the keys went to the host unmapped.
	StatePassed
	// StateQueued means the key arrived during a feed and was held back.
	StateQueued
	// StateConsumed means a hook took the key.
	StateConsumed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateWaiting:
		return "waiting"
	case StateExecuted:
		return "executed"
	case StateAborted:
		return "aborted"
	case StatePassed:
		return "passed"
	case StateQueued:
		return "queued"
	case StateConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// Input is a key event plus how it entered the processor.
type Input struct {
	Event key.Event

	// Macro marks keys synthesized by a feed rather than typed.
	Macro bool

	// NoRemap resolves against builtin hives only.
	NoRemap bool

	// SkipMap sends the key to the host without lookup.
	SkipMap bool

	fed bool
}

// Result describes what processing a key did.
type Result struct {
	State   State
	Binding *hive.Binding
	Keys    string
	Count   int
	Err     error
}

// FeedOptions control FeedKeys.
type FeedOptions struct {
	// NoRemap resolves the keys against builtin hives only.
	NoRemap bool

	// Silent suppresses pending-key status updates.
	Silent bool

	// SkipMap sends every key straight to the host.
	SkipMap bool

	// Typed feeds the keys as if they were typed. They are recorded by
	// macro recording and are not marked as macro keys.
	Typed bool
}

// ExecError wraps an error returned while executing a binding.
type ExecError struct {
	Keys    string
	Binding *hive.Binding
	Err     error
}

func (e *ExecError) Error() string {
	if e.Binding != nil && e.Binding.Description != "" {
		return fmt.Sprintf("%s (%s): %v", e.Keys, e.Binding.Description, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Keys, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Settings supplies the policies the processor consults on every key.
type Settings interface {
	// WaitPolicy reports whether ambiguous sequences wait and for how long.
	WaitPolicy() (bool, time.Duration)

	// PassUnknown reports whether unknown keys in the named mode go to the
	// host.
	PassUnknown(modeName string) bool

	// PassKeys returns the keys that go straight to the host on site.
	PassKeys(site string) []string

	// ReportUnknown reports whether unknown sequences are reported as
	// errors.
	ReportUnknown() bool
}

// Host receives keys that are not consumed by a binding.
type Host interface {
	PassKey(ev key.Event)
	Beep()
}

// Logger is the logging interface used by the processor.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// StaticSettings is a fixed Settings value.
type StaticSettings struct {
	Timeout    bool
	TimeoutLen time.Duration
	Unknown    map[string]bool
	Keys       map[string][]string
	Report     bool
}

// DefaultSettings waits one second on ambiguous sequences.
func DefaultSettings() *StaticSettings {
	return &StaticSettings{Timeout: true, TimeoutLen: time.Second}
}

func (s *StaticSettings) WaitPolicy() (bool, time.Duration) { return s.Timeout, s.TimeoutLen }

func (s *StaticSettings) PassUnknown(modeName string) bool { return s.Unknown[modeName] }

func (s *StaticSettings) PassKeys(site string) []string { return s.Keys[site] }

func (s *StaticSettings) ReportUnknown() bool { return s.Report }

type nopHost struct{}

func (nopHost) PassKey(key.Event) {}
func (nopHost) Beep() {}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
