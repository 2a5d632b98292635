package macro

import "testing"

func TestSlotNames(t *testing.T) {
	tests := []struct {
		r         rune
		valid     bool
		append    bool
		normalize rune
	}{
		{'a', true, false, 'a'},
		{'z', true, false, 'z'},
		{'A', true, true, 'a'},
		{'Q', true, true, 'q'},
		{'0', true, false, '0'},
		{'9', true, false, '9'},
		{'@', false, false, 0},
		{'!', false, false, 0},
		{' ', false, false, 0},
		{'é', false, false, 0},
		{0, false, false, 0},
	}
	for _, tt := range tests {
		if got := IsValidSlot(tt.r); got != tt.valid {
			t.Errorf("IsValidSlot(%q) = %v, want %v", tt.r, got, tt.valid)
		}
		if got := IsAppendSlot(tt.r); got != tt.append {
			t.Errorf("IsAppendSlot(%q) = %v, want %v", tt.r, got, tt.append)
		}
		if got := Normalize(tt.r); got != tt.normalize {
			t.Errorf("Normalize(%q) = %q, want %q", tt.r, got, tt.normalize)
		}
	}
}
