package key

import "testing"

func TestEventString(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{NewRuneEvent('a', ModNone), "a"},
		{NewRuneEvent('a', ModShift), "A"},
		{NewRuneEvent('A', ModNone), "A"},
		{NewRuneEvent('a', ModCtrl), "<C-a>"},
		{NewRuneEvent('A', ModCtrl), "<C-S-A>"},
		{NewRuneEvent('a', ModCtrl|ModShift), "<C-S-A>"},
		{NewRuneEvent('@', ModShift), "<S-@>"},
		{NewRuneEvent(' ', ModNone), "<Space>"},
		{NewRuneEvent('<', ModCtrl), "<C-lt>"},
		{NewRuneEvent('x', ModMeta|ModAlt|ModCtrl), "<C-A-M-x>"},
		{NewSpecialEvent(KeyEscape, ModNone), "<Esc>"},
		{NewSpecialEvent(KeyReturn, ModShift), "<S-Return>"},
		{NewSpecialEvent(KeyLeft, ModCtrl|ModShift), "<C-S-Left>"},
		{NewSpecialEvent(KeyNop, ModNone), "<Nop>"},
		{Event{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.event.String(); got != tt.want {
				t.Errorf("Event.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventEquals(t *testing.T) {
	shifted := Event{Key: KeyRune, Rune: 'a', Modifiers: ModShift}
	typed := Event{Key: KeyRune, Rune: 'A'}
	if !shifted.Equals(typed) {
		t.Error("shifted 'a' should equal typed 'A'")
	}
	if NewRuneEvent('a', ModNone).Equals(NewRuneEvent('a', ModCtrl)) {
		t.Error("'a' should not equal <C-a>")
	}
}

func TestEventIsDigit(t *testing.T) {
	tests := []struct {
		event Event
		want  bool
	}{
		{NewRuneEvent('0', ModNone), true},
		{NewRuneEvent('9', ModNone), true},
		{NewRuneEvent('9', ModCtrl), false},
		{NewRuneEvent('a', ModNone), false},
		{NewSpecialEvent(KeyKP1, ModNone), false},
	}
	for _, tt := range tests {
		if got := tt.event.IsDigit(); got != tt.want {
			t.Errorf("%#v.IsDigit() = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"Esc", KeyEscape},
		{"escape", KeyEscape},
		{"CR", KeyReturn},
		{"enter", KeyReturn},
		{"BS", KeyBackspace},
		{"pgup", KeyPageUp},
		{"k5", KeyKP5},
		{"bogus", KeyNone},
	}
	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
