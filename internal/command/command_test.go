package command

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryExecute(t *testing.T) {
	r := NewRegistry()
	var gotArgs []string
	var gotCtx Context
	r.Register("echo", func(args []string, ctx Context) error {
		gotArgs, gotCtx = args, ctx
		return nil
	})

	ctx := Context{Keys: "ge", Count: 3}
	if err := r.Execute(":echo hello  world", ctx); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if want := []string{"hello", "world"}; !reflect.DeepEqual(gotArgs, want) {
		t.Errorf("args = %v, want %v", gotArgs, want)
	}
	if gotCtx != ctx {
		t.Errorf("ctx = %+v, want %+v", gotCtx, ctx)
	}
}

func TestRegistryQuoting(t *testing.T) {
	r := NewRegistry()
	var gotArgs []string
	r.Register("map", func(args []string, _ Context) error {
		gotArgs = args
		return nil
	})

	tests := []struct {
		cmdline string
		want    []string
	}{
		{`map n gx "a b"`, []string{"n", "gx", "a b"}},
		{`map n <C-w>j 'say "hi"'`, []string{"n", "<C-w>j", `say "hi"`}},
		{`map n \\x y$`, []string{"n", `\x`, "y$"}},
		{`map n gx xx # trailing note`, []string{"n", "gx", "xx"}},
		{`map`, []string{}},
	}
	for _, tt := range tests {
		gotArgs = nil
		if err := r.Execute(tt.cmdline, Context{}); err != nil {
			t.Errorf("Execute(%q) error = %v", tt.cmdline, err)
			continue
		}
		if len(gotArgs) != len(tt.want) || (len(tt.want) > 0 && !reflect.DeepEqual(gotArgs, tt.want)) {
			t.Errorf("Execute(%q) args = %q, want %q", tt.cmdline, gotArgs, tt.want)
		}
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func([]string, Context) error { panic("kaboom") })

	tests := []struct {
		cmdline string
		want    error
	}{
		{"", ErrEmptyCommand},
		{"   ", ErrEmptyCommand},
		{"missing", ErrNoHandler},
		{"boom", ErrPanic},
		{`echo "unterminated`, ErrSyntax},
		{`echo trailing\`, ErrSyntax},
	}
	for _, tt := range tests {
		if err := r.Execute(tt.cmdline, Context{}); !errors.Is(err, tt.want) {
			t.Errorf("Execute(%q) error = %v, want %v", tt.cmdline, err, tt.want)
		}
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func([]string, Context) error { return nil })
	r.Register("a", func([]string, Context) error { return nil })
	r.Unregister("b")
	if got := r.Names(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Names() = %v, want [a]", got)
	}
}
