package macro

import (
	"errors"
	"time"
	"unicode"
)

// LastPlayed names the most recently played slot.
const LastPlayed = '@'

var (
	ErrInvalidSlot      = errors.New("invalid macro slot")
	ErrNoLastPlayed     = errors.New("no previously played macro")
	ErrEmptySlot        = errors.New("macro slot is empty")
	ErrAlreadyRecording = errors.New("already recording a macro")
	ErrNotRecording     = errors.New("not recording a macro")
)

// Slot is a recorded macro.
type Slot struct {
	Name     string
	Keys     string
	Recorded time.Time
}

// IsValidSlot reports whether r names a slot: a-z, A-Z or 0-9.
func IsValidSlot(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsAppendSlot reports whether recording into r appends to its lower-case slot.
func IsAppendSlot(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// Normalize returns the stored name for r, or 0 if r is not a slot.
func Normalize(r rune) rune {
	if !IsValidSlot(r) {
		return 0
	}
	return unicode.ToLower(r)
}
