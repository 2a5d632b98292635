package key

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a", "a"},
		{"gg", "gg"},
		{"<C-A>", "<C-a>"},
		{"<c-a>", "<C-a>"},
		{"<C-S-a>", "<C-S-A>"},
		{"<S-C-a>", "<C-S-A>"},
		{"<S-a>", "A"},
		{"<S-@>", "<S-@>"},
		{"<C- >", "<C-Space>"},
		{" ", "<Space>"},
		{"<space>", "<Space>"},
		{"<S-Space>", "<S-Space>"},
		{"<", "<lt>"},
		{"<<", "<lt><lt>"},
		{"<lt>", "<lt>"},
		{"<CR>", "<Return>"},
		{"<Enter>", "<Return>"},
		{"<esc>", "<Esc>"},
		{"<Escape>", "<Esc>"},
		{"<A-M-C-x>", "<C-A-M-x>"},
		{"<S-Tab>", "<S-Tab>"},
		{"<bar>", "|"},
		{"<nop>", "<Nop>"},
		{"<C->>", "<C->>"},
		{"<C-->", "<C-->"},
		{"<a>", "<lt>a>"},
		{"<misteak>", "<lt>misteak>"},
		{"<C-a", "<lt>C-a"},
		{"2dw", "2dw"},
		{"<Leader>x", "<lt>Leader>x"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Canonicalize(tt.in); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		"a", "<C-A>", "<S-@>", "<", "<>", "<<a>>", "<lt>>", "<C->>x",
		"<misteak>", " <S- >", "<C-S-Left>", "ZZ", "<k0><Plus>", "é<C-é>",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize(Canonicalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"<C-a>", "<C-S-A>", "A", "<S-@>", "<Space>", "<lt>", "<Return>",
		"<M-Left>", "<F12>", "<S-Tab>", "<C->>", "<Nop>", "<kEnter>",
	}
	for _, in := range inputs {
		ev, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if got, want := Canonicalize(ev.String()), Canonicalize(in); got != want {
			t.Errorf("Canonicalize(Parse(%q).String()) = %q, want %q", in, got, want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptySpec},
		{"ab", ErrInvalidSpec},
		{"<C-a", ErrUnmatchedBracket},
		{"<foo>", ErrInvalidSpec},
		{"<C-a>b", ErrInvalidSpec},
	}
	for _, tt := range tests {
		_, err := Parse(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"gg", []string{"g", "g"}},
		{"g<C-a><lt>", []string{"g", "<C-a>", "<lt>"}},
		{"<C->>a", []string{"<C->>", "a"}},
		{"<lt>>", []string{"<lt>", ">"}},
		{"dé", []string{"d", "é"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKeys(t *testing.T) {
	got := ParseKeys("2<C-w>j")
	want := []Event{
		{Key: KeyRune, Rune: '2'},
		{Key: KeyRune, Rune: 'w', Modifiers: ModCtrl},
		{Key: KeyRune, Rune: 'j'},
	}
	if len(got) != len(want) {
		t.Fatalf("ParseKeys len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equals(want[i]) {
			t.Errorf("ParseKeys[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}
