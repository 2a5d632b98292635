package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleSettings = `
timeout = true
timeoutlen = 250
report_unknown = true
mapleader = ","
mappings = ["maps/user.yaml"]
plugins = ["/abs/tabs.lua"]

[passunknown]
insert = true

[passkeys]
"mail.*" = ["j", "k"]
"*" = ["gg", "j"]

[macros]
store = "sqlite"
path = "macros.db"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefault(t *testing.T) {
	s := New(Default())
	wait, d := s.WaitPolicy()
	if !wait || d != time.Second {
		t.Errorf("WaitPolicy() = %v, %v, want true, 1s", wait, d)
	}
	if s.PassUnknown("insert") {
		t.Error("PassUnknown(insert) = true by default")
	}
	if got := s.Leader(); got != `\` {
		t.Errorf("Leader() = %q, want backslash", got)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(writeFile(t, dir, "keyhive.toml", sampleSettings))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if wait, d := s.WaitPolicy(); !wait || d != 250*time.Millisecond {
		t.Errorf("WaitPolicy() = %v, %v, want true, 250ms", wait, d)
	}
	if !s.PassUnknown("insert") || s.PassUnknown("normal") {
		t.Error("PassUnknown does not follow [passunknown]")
	}
	if !s.ReportUnknown() {
		t.Error("ReportUnknown() = false")
	}
	if got := s.Leader(); got != "," {
		t.Errorf("Leader() = %q, want ,", got)
	}

	v := s.Values()
	if want := filepath.Join(dir, "maps", "user.yaml"); v.Mappings[0] != want {
		t.Errorf("Mappings[0] = %q, want %q", v.Mappings[0], want)
	}
	if v.Plugins[0] != "/abs/tabs.lua" {
		t.Errorf("absolute plugin path rewritten to %q", v.Plugins[0])
	}
	if v.Macros.Store != "sqlite" || v.Macros.Path != filepath.Join(dir, "macros.db") {
		t.Errorf("Macros = %+v", v.Macros)
	}
}

func TestPassKeys(t *testing.T) {
	s, err := LoadReader(strings.NewReader(sampleSettings))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		site string
		want []string
	}{
		{"mail.example", []string{"gg", "j", "k"}},
		{"news", []string{"gg", "j"}},
	}
	for _, tt := range tests {
		got := s.PassKeys(tt.site)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("PassKeys(%q) = %v, want %v", tt.site, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}
	if wait, _ := s.WaitPolicy(); !wait {
		t.Error("missing file did not yield defaults")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		located bool
		message string
	}{
		{"syntax", "timeout = \ntimeoutlen = 5", true, ""},
		{"unknown key", "timeout = true\ncolour = \"red\"", true, "unknown setting colour"},
		{"wrong type", "timeoutlen = \"soon\"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if tt.located && perr.Line == 0 {
				t.Error("Line = 0, want a position")
			}
			if tt.message != "" && perr.Message != tt.message {
				t.Errorf("Message = %q, want %q", perr.Message, tt.message)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"negative timeout", "timeoutlen = -1"},
		{"unknown store", "[macros]\nstore = \"redis\""},
		{"store without path", "[macros]\nstore = \"sqlite\""},
		{"bad pattern", "[passkeys]\n\"[\" = [\"j\"]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReader(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidSetting) {
				t.Errorf("error = %v, want ErrInvalidSetting", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"KEYHIVE_LOG_LEVEL":   "debug",
		"KEYHIVE_TIMEOUTLEN":  "40",
		"KEYHIVE_MACRO_STORE": "json",
		"KEYHIVE_MACRO_PATH":  "/tmp/m.json",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	v := Default()
	if err := applyEnv(&v, lookup); err != nil {
		t.Fatal(err)
	}
	if v.LogLevel != "debug" || v.TimeoutLen != 40 || v.Macros.Store != "json" || v.Macros.Path != "/tmp/m.json" {
		t.Errorf("applyEnv() = %+v", v)
	}

	env["KEYHIVE_TIMEOUTLEN"] = "soon"
	if err := applyEnv(&v, lookup); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("applyEnv(bad timeoutlen) = %v, want ErrInvalidSetting", err)
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "keyhive.toml", "timeoutlen = 100\n")
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 4)
	go w.Run(ctx, func(err error) { reloaded <- err })

	writeFile(t, dir, "keyhive.toml", "timeoutlen = 300\n")

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after writing the file")
	}
	if _, d := s.WaitPolicy(); d != 300*time.Millisecond {
		t.Errorf("timeout after reload = %v, want 300ms", d)
	}
}

func TestReloadKeepsValuesOnError(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "keyhive.toml", "timeoutlen = 100\n")
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "keyhive.toml", "timeoutlen = [\n")
	if err := s.Reload(); err == nil {
		t.Fatal("Reload() of a broken file succeeded")
	}
	if _, d := s.WaitPolicy(); d != 100*time.Millisecond {
		t.Errorf("timeout after failed reload = %v, want 100ms", d)
	}
}

func TestReloadKeepsValuesWhenFileRemoved(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "keyhive.toml", "timeoutlen = 100\nmapleader = \",\"\n")
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Reload() of a removed file = %v, want fs.ErrNotExist", err)
	}
	if _, d := s.WaitPolicy(); d != 100*time.Millisecond {
		t.Errorf("timeout after removal = %v, want 100ms", d)
	}
	if got := s.Leader(); got != "," {
		t.Errorf("Leader() after removal = %q, want ,", got)
	}
}

func TestWatcherReportsRemovedFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "keyhive.toml", "timeoutlen = 100\n")
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 4)
	go w.Run(ctx, func(err error) { reloaded <- err })

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-reloaded:
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("reload error = %v, want fs.ErrNotExist", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after removing the file")
	}
	if _, d := s.WaitPolicy(); d != 100*time.Millisecond {
		t.Errorf("timeout after removal = %v, want 100ms", d)
	}
}
