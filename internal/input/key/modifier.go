package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta
)

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// prefix renders the Ctrl, Alt and Meta bits in canonical order.
// Shift is placed by the caller because whether it prints depends on the key.
func (m Modifier) prefix() string {
	var b strings.Builder
	if m.Has(ModCtrl) {
		b.WriteString("C-")
	}
	if m.Has(ModAlt) {
		b.WriteString("A-")
	}
	if m.Has(ModMeta) {
		b.WriteString("M-")
	}
	return b.String()
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "Meta")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "+")
}

// modifierLetters maps the single-letter modifier tags used inside
// angle brackets. Matching is case-insensitive.
var modifierLetters = map[byte]Modifier{
	'c': ModCtrl,
	'a': ModAlt,
	'm': ModMeta,
	's': ModShift,
}

// ModifierFromLetter returns the modifier for a bracket tag such as 'C'.
func ModifierFromLetter(c byte) (Modifier, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	m, ok := modifierLetters[c]
	return m, ok
}
