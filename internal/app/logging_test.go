package app

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"Warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"verbose", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if got := LogLevel(99).String(); got != "UNKNOWN" {
		t.Errorf("LogLevel(99).String() = %q, want UNKNOWN", got)
	}
}

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Level: level, Output: &buf, Prefix: "test"})
	l.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return l, &buf
}

func TestLoggerFormat(t *testing.T) {
	l, buf := newTestLogger(LogLevelDebug)
	l.WithFields(map[string]any{"mode": "normal", "count": 3}).Info("executed %s", "dd")

	want := "2024-05-06T07:08:09.000 [INFO] test: executed dd {count=3, mode=normal}\n"
	if got := buf.String(); got != want {
		t.Errorf("line = %q, want %q", got, want)
	}
}

func TestLoggerFiltering(t *testing.T) {
	l, buf := newTestLogger(LogLevelWarn)
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	out := buf.String()
	for _, tag := range []string{"[DEBUG]", "[INFO]"} {
		if strings.Contains(out, tag) {
			t.Errorf("output contains %s at warn level", tag)
		}
	}
	for _, tag := range []string{"[WARN]", "[ERROR]"} {
		if !strings.Contains(out, tag) {
			t.Errorf("output missing %s", tag)
		}
	}

	buf.Reset()
	l.SetLevel(LogLevelDebug)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("SetLevel did not lower the threshold")
	}
}

func TestLoggerChildSharesOutput(t *testing.T) {
	l, buf := newTestLogger(LogLevelInfo)
	child := l.WithComponent("dispatch")

	var other bytes.Buffer
	l.SetOutput(&other)
	child.Info("hello")
	if buf.Len() == 0 || other.Len() != 0 {
		t.Errorf("child wrote to the wrong output: old=%q new=%q", buf.String(), other.String())
	}
	if !strings.Contains(buf.String(), "component=dispatch") {
		t.Errorf("output = %q, want component field", buf.String())
	}
	if strings.Contains(other.String(), "component") {
		t.Error("WithComponent changed the parent's fields")
	}
}

func TestLoggerDisable(t *testing.T) {
	l, buf := newTestLogger(LogLevelInfo)
	l.Disable()
	l.Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
	l.Enable()
	l.Error("shown")
	if buf.Len() == 0 {
		t.Error("enabled logger wrote nothing")
	}

	NullLogger().Error("discarded")
}

func TestLogComponentError(t *testing.T) {
	l, buf := newTestLogger(LogLevelInfo)
	l.logComponentError("macro", nil)
	if buf.Len() != 0 {
		t.Errorf("nil error logged %q", buf.String())
	}
	l.logComponentError("macro", errTest)
	if !strings.Contains(buf.String(), "error: boom {component=macro}") {
		t.Errorf("output = %q", buf.String())
	}
}
