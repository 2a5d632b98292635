package macro

import (
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/key"
)

// Recorder captures typed keys into a slot. Register it with the
// processor's hook manager so it sees every key before dispatch.
type Recorder struct {
	dispatch.BaseHook

	mu        sync.Mutex
	store     Store
	recording bool
	slot      rune
	events    []key.Event
	onChange  func(slot rune, recording bool)
	now       func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecordingStatus sets a callback invoked when recording starts or stops.
func WithRecordingStatus(fn func(slot rune, recording bool)) RecorderOption {
	return func(r *Recorder) { r.onChange = fn }
}

// WithClock overrides the time source used to stamp slots.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder returns a recorder saving into store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store returns the backing store.
func (r *Recorder) Store() Store { return r.store }

// StartRecording begins recording into slot. An upper-case slot appends to
// the keys already stored under its lower-case name.
func (r *Recorder) StartRecording(slot rune) error {
	name := Normalize(slot)
	if name == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("%w: %c", ErrAlreadyRecording, r.slot)
	}

	var events []key.Event
	if IsAppendSlot(slot) {
		existing, ok, err := r.store.Get(string(name))
		if err != nil {
			r.mu.Unlock()
			return err
		}
		if ok {
			events = key.ParseKeys(existing.Keys)
		}
	}
	r.recording = true
	r.slot = name
	r.events = events
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange(name, true)
	}
	return nil
}

// StopRecording saves the captured keys. A trailing run equal to exclude,
// normally the keys that asked to stop, is dropped first.
func (r *Recorder) StopRecording(exclude ...key.Event) (Slot, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Slot{}, ErrNotRecording
	}
	events := r.events
	if n := len(exclude); n > 0 && n <= len(events) && sameKeys(events[len(events)-n:], exclude) {
		events = events[:len(events)-n]
	}
	slot := Slot{Name: string(r.slot), Keys: key.Stringify(events), Recorded: r.now()}
	r.recording = false
	r.events = nil
	onChange := r.onChange
	r.mu.Unlock()

	if onChange != nil {
		onChange([]rune(slot.Name)[0], false)
	}
	if err := r.store.Put(slot); err != nil {
		return slot, err
	}
	return slot, nil
}

// Recording reports whether keys are being captured, and into which slot.
func (r *Recorder) Recording() (rune, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slot, r.recording
}

// IsRecording reports whether keys are being captured.
func (r *Recorder) IsRecording() bool {
	_, ok := r.Recording()
	return ok
}

// Pending returns the keys captured so far.
func (r *Recorder) Pending() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return key.Stringify(r.events)
}

// PreKey captures keys that were typed rather than fed from a macro.
func (r *Recorder) PreKey(in *dispatch.Input) bool {
	if in.Macro {
		return false
	}
	r.mu.Lock()
	if r.recording {
		r.events = append(r.events, in.Event)
	}
	r.mu.Unlock()
	return false
}

// Macros returns the stored slots whose names match filter.
// An empty filter matches every slot.
func (r *Recorder) Macros(filter string) ([]Slot, error) {
	re, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	all, err := r.store.List()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(s Slot) bool { return !re.MatchString(s.Name) }), nil
}

// Delete removes the slots whose names match filter and returns how many
// were removed.
func (r *Recorder) Delete(filter string) (int, error) {
	matched, err := r.Macros(filter)
	if err != nil {
		return 0, err
	}
	for i, s := range matched {
		if err := r.store.Delete(s.Name); err != nil {
			return i, err
		}
	}
	return len(matched), nil
}

func compileFilter(filter string) (*regexp.Regexp, error) {
	if filter == "" {
		filter = ".*"
	}
	re, err := regexp.Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid macro filter %q: %w", filter, err)
	}
	return re, nil
}

func sameKeys(a, b []key.Event) bool {
	return slices.EqualFunc(a, b, key.Event.Equals)
}
