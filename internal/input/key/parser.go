package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parse errors
var (
	ErrEmptySpec        = errors.New("empty key specification")
	ErrInvalidSpec      = errors.New("invalid key specification")
	ErrUnmatchedBracket = errors.New("unmatched bracket in key specification")
)

// Parse parses exactly one key, e.g. "a", "<C-s>", "<Esc>" or "<S-Space>".
// Unlike ParseKeys it does not fall back to literal characters.
func Parse(spec string) (Event, error) {
	if spec == "" {
		return Event{}, ErrEmptySpec
	}
	if spec[0] != '<' {
		r, size := utf8.DecodeRuneInString(spec)
		if size != len(spec) {
			return Event{}, fmt.Errorf("%w: %q is more than one key", ErrInvalidSpec, spec)
		}
		return Event{Key: KeyRune, Rune: r}, nil
	}
	if spec == "<" {
		return Event{Key: KeyRune, Rune: '<'}, nil
	}

	end := tokenEnd(spec, 0)
	if end < 0 {
		return Event{}, fmt.Errorf("%w: %q", ErrUnmatchedBracket, spec)
	}
	if end != len(spec) {
		return Event{}, fmt.Errorf("%w: %q is more than one key", ErrInvalidSpec, spec)
	}
	ev, ok := parseBracket(spec)
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, spec)
	}
	return ev, nil
}

// ParseKeys splits a key string into events. It never fails: a bracketed
// form that does not name a key, or a "<" with no closing bracket, is read
// as a literal "<" followed by the remaining characters.
func ParseKeys(keys string) []Event {
	var out []Event
	for i := 0; i < len(keys); {
		if keys[i] == '<' {
			if end := tokenEnd(keys, i); end > 0 {
				if ev, ok := parseBracket(keys[i:end]); ok {
					out = append(out, ev)
					i = end
					continue
				}
			}
			out = append(out, Event{Key: KeyRune, Rune: '<'})
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(keys[i:])
		out = append(out, Event{Key: KeyRune, Rune: r})
		i += size
	}
	return out
}

// Canonicalize returns the canonical form of a key string.
func Canonicalize(keys string) string {
	return Stringify(ParseKeys(keys))
}

// Tokenize splits a canonical key string into one token per key, so
// "g<C-a><lt>" yields ["g", "<C-a>", "<lt>"]. Input that is not canonical
// should go through Canonicalize first.
func Tokenize(keys string) []string {
	var out []string
	for i := 0; i < len(keys); {
		if keys[i] == '<' {
			if end := tokenEnd(keys, i); end > 0 {
				out = append(out, keys[i:end])
				i = end
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(keys[i:])
		out = append(out, keys[i:i+size])
		i += size
	}
	return out
}

// tokenEnd returns the index just past the bracketed token starting at
// keys[start], or -1 if there is no closing bracket. The token closes at
// the first '>', except that a modifier-only prefix such as "<C-" takes
// the following '>' as its key name.
func tokenEnd(keys string, start int) int {
	rel := strings.IndexByte(keys[start+1:], '>')
	if rel < 0 {
		return -1
	}
	p := start + 1 + rel
	if p+1 < len(keys) && keys[p+1] == '>' && isModifierPrefix(keys[start+1:p]) {
		return p + 2
	}
	return p + 1
}

func isModifierPrefix(s string) bool {
	if s == "" || len(s)%2 != 0 {
		return false
	}
	for i := 0; i < len(s); i += 2 {
		if _, ok := ModifierFromLetter(s[i]); !ok || s[i+1] != '-' {
			return false
		}
	}
	return true
}

// parseBracket parses a "<...>" token. It reports false when the token does
// not name a key, which includes "<>" and a bare character such as "<a>".
func parseBracket(tok string) (Event, bool) {
	inner := tok[1 : len(tok)-1]

	var mods Modifier
	for len(inner) > 2 && inner[1] == '-' {
		m, ok := ModifierFromLetter(inner[0])
		if !ok {
			break
		}
		mods = mods.With(m)
		inner = inner[2:]
	}
	if inner == "" {
		return Event{}, false
	}

	if r, size := utf8.DecodeRuneInString(inner); size == len(inner) {
		if mods == ModNone {
			return Event{}, false
		}
		if mods.Has(ModShift) {
			return Event{Key: KeyRune, Rune: r, Modifiers: mods}.Normalize(), true
		}
		return Event{Key: KeyRune, Rune: toLower(r), Modifiers: mods}, true
	}

	name := strings.ToLower(inner)
	if r, ok := runeNameMap[name]; ok {
		return Event{Key: KeyRune, Rune: r, Modifiers: mods}, true
	}
	if k, ok := keyNameMap[name]; ok {
		return Event{Key: k, Modifiers: mods}, true
	}
	return Event{}, false
}
