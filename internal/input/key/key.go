package key

import (
	"fmt"
	"strings"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Event.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyReturn
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Other special keys
	KeyPause
	KeyPrintScreen
	KeyScrollLock
	KeyNumLock
	KeyCapsLock

	// Keypad keys
	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPAdd
	KeyKPSubtract
	KeyKPMultiply
	KeyKPDivide
	KeyKPDecimal
	KeyKPEnter

	// KeyNop is a key that can appear in mappings but never be typed.
	KeyNop

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in Event.Rune.
	KeyRune
)

// keyNames holds the canonical name of each special key. The canonical
// name is what Stringify emits inside angle brackets.
var keyNames = map[Key]string{
	KeyEscape:      "Esc",
	KeyReturn:      "Return",
	KeyTab:         "Tab",
	KeyBackspace:   "BS",
	KeyDelete:      "Del",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyEnd:         "End",
	KeyPageUp:      "PageUp",
	KeyPageDown:    "PageDown",
	KeyUp:          "Up",
	KeyDown:        "Down",
	KeyLeft:        "Left",
	KeyRight:       "Right",
	KeyF1:          "F1",
	KeyF2:          "F2",
	KeyF3:          "F3",
	KeyF4:          "F4",
	KeyF5:          "F5",
	KeyF6:          "F6",
	KeyF7:          "F7",
	KeyF8:          "F8",
	KeyF9:          "F9",
	KeyF10:         "F10",
	KeyF11:         "F11",
	KeyF12:         "F12",
	KeyPause:       "Pause",
	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyNumLock:     "NumLock",
	KeyCapsLock:    "CapsLock",
	KeyKP0:         "k0",
	KeyKP1:         "k1",
	KeyKP2:         "k2",
	KeyKP3:         "k3",
	KeyKP4:         "k4",
	KeyKP5:         "k5",
	KeyKP6:         "k6",
	KeyKP7:         "k7",
	KeyKP8:         "k8",
	KeyKP9:         "k9",
	KeyKPAdd:       "Plus",
	KeyKPSubtract:  "Minus",
	KeyKPMultiply:  "Multiply",
	KeyKPDivide:    "Divide",
	KeyKPDecimal:   "Decimal",
	KeyKPEnter:     "kEnter",
	KeyNop:         "Nop",
}

// String returns the canonical name for the key.
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "None"
	case KeyRune:
		return "Rune"
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// IsSpecial returns true if this is a special (non-character) key.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// IsKeypadKey returns true if this is a keypad key.
func (k Key) IsKeypadKey() bool {
	return k >= KeyKP0 && k <= KeyKPEnter
}

// keyNameMap maps lowercased names and synonyms to keys. Runes that have a
// bracketed name ("space", "lt") are resolved separately by runeNameMap.
var keyNameMap = map[string]Key{
	"backspace": KeyBackspace,
	"escape":    KeyEscape,
	"cr":        KeyReturn,
	"enter":     KeyReturn,
	"delete":    KeyDelete,
	"ins":       KeyInsert,
	"pgup":      KeyPageUp,
	"pgdn":      KeyPageDown,
	"add":       KeyKPAdd,
	"subtract":  KeyKPSubtract,
	"kplus":     KeyKPAdd,
	"kminus":    KeyKPSubtract,
}

// runeNameMap maps bracketed names to the character they stand for.
var runeNameMap = map[string]rune{
	"space":  ' ',
	"lt":     '<',
	"bar":    '|',
	"bslash": '\\',
}

func init() {
	for k, name := range keyNames {
		keyNameMap[strings.ToLower(name)] = k
	}
}

// KeyFromName returns the Key for a given name (case-insensitive).
// Returns KeyNone if the name is not recognized.
func KeyFromName(name string) Key {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := keyNameMap[name]; ok {
		return k
	}
	return KeyNone
}
