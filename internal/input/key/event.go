package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Event represents a single key press event.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{
		Key:       KeyRune,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}.Normalize()
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{
		Key:       key,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsModified returns true if Ctrl, Alt or Meta is held.
// Shift alone does not count since it changes the character itself.
func (e Event) IsModified() bool {
	return e.Modifiers.Has(ModCtrl | ModAlt | ModMeta)
}

// IsDigit reports whether the event is an unmodified ASCII digit.
func (e Event) IsDigit() bool {
	return e.IsRune() && !e.IsModified() && !e.Modifiers.Has(ModShift) &&
		e.Rune >= '0' && e.Rune <= '9'
}

// IsEscape returns true if this is the Escape key (with no modifiers).
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// Normalize folds Shift into the character for letters, so a shifted 'a'
// and a typed 'A' are the same event. Shift on a character without case is
// kept, which is how "<S-@>" survives a round trip.
func (e Event) Normalize() Event {
	if e.Key != KeyRune || !e.Modifiers.Has(ModShift) {
		return e
	}
	upper := unicode.ToUpper(e.Rune)
	if upper != unicode.ToLower(e.Rune) {
		e.Rune = upper
		e.Modifiers = e.Modifiers.Without(ModShift)
	}
	return e
}

// Equals returns true if two events represent the same key press.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	a, b := e.Normalize(), other.Normalize()
	return a.Key == b.Key && a.Rune == b.Rune && a.Modifiers == b.Modifiers
}

// String returns the canonical notation for the event, e.g. "a", "A",
// "<C-a>", "<C-S-A>", "<Esc>", "<S-Space>" or "<lt>".
func (e Event) String() string {
	switch e.Key {
	case KeyNone:
		return ""
	case KeyNop:
		return "<Nop>"
	case KeyRune:
		return e.runeString()
	}

	mods := e.Modifiers.prefix()
	if e.Modifiers.Has(ModShift) {
		mods += "S-"
	}
	return "<" + mods + e.Key.String() + ">"
}

func (e Event) runeString() string {
	e = e.Normalize()
	mods := e.Modifiers.prefix()
	shift := e.Modifiers.Has(ModShift)

	switch e.Rune {
	case ' ':
		if shift {
			mods += "S-"
		}
		return "<" + mods + "Space>"
	case '<':
		if shift {
			mods += "S-"
		}
		return "<" + mods + "lt>"
	}

	cased := unicode.ToUpper(e.Rune) != unicode.ToLower(e.Rune)
	switch {
	case cased && unicode.IsUpper(e.Rune) && mods != "":
		mods += "S-"
	case !cased && shift:
		mods += "S-"
	case mods == "":
		return string(e.Rune)
	}
	return "<" + mods + string(e.Rune) + ">"
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, e.Modifiers.String())
}

// Stringify renders events in canonical notation.
func Stringify(events []Event) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e.String())
	}
	return b.String()
}

func toLower(r rune) rune {
	return unicode.ToLower(r)
}
