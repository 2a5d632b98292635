package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Values is the decoded form of a settings file.
type Values struct {
	Timeout       bool                `toml:"timeout"`
	TimeoutLen    int                 `toml:"timeoutlen"`
	PassUnknown   map[string]bool     `toml:"passunknown"`
	PassKeys      map[string][]string `toml:"passkeys"`
	ReportUnknown bool                `toml:"report_unknown"`
	MapLeader     string              `toml:"mapleader"`
	LogLevel      string              `toml:"log_level"`
	Mappings      []string            `toml:"mappings"`
	Plugins       []string            `toml:"plugins"`
	Macros        MacroValues         `toml:"macros"`
}

// MacroValues selects the macro store.
type MacroValues struct {
	Store string `toml:"store"`
	Path  string `toml:"path"`
}

// Default returns the settings used when no file is given.
func Default() Values {
	return Values{
		Timeout:     true,
		TimeoutLen:  1000,
		PassUnknown: map[string]bool{},
		PassKeys:    map[string][]string{},
		MapLeader:   `\`,
		LogLevel:    "info",
		Macros:      MacroValues{Store: "memory"},
	}
}

// Validate reports the first out-of-range value.
func (v Values) Validate() error {
	if v.TimeoutLen < 0 {
		return fmt.Errorf("%w: timeoutlen %d is negative", ErrInvalidSetting, v.TimeoutLen)
	}
	switch v.Macros.Store {
	case "", "memory", "file", "json", "sqlite":
	default:
		return fmt.Errorf("%w: unknown macro store %q", ErrInvalidSetting, v.Macros.Store)
	}
	if v.Macros.Store == "file" || v.Macros.Store == "json" || v.Macros.Store == "sqlite" {
		if v.Macros.Path == "" {
			return fmt.Errorf("%w: macro store %s needs a path", ErrInvalidSetting, v.Macros.Store)
		}
	}
	for glob := range v.PassKeys {
		if _, err := path.Match(glob, ""); err != nil {
			return fmt.Errorf("%w: passkeys pattern %q: %v", ErrInvalidSetting, glob, err)
		}
	}
	return nil
}

// Settings holds the live values. The zero value is not usable; use New,
// Load or LoadReader.
type Settings struct {
	mu     sync.RWMutex
	values Values
	path   string
}

// New returns settings holding v.
func New(v Values) *Settings {
	return &Settings{values: v}
}

// Load reads settings from path. A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	v, err := readFile(path, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return &Settings{values: v, path: path}, nil
}

// LoadReader reads settings from r. Relative paths stay as written.
func LoadReader(r io.Reader) (*Settings, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	v, err := parse("<reader>", data)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return New(v), nil
}

// Reload rereads the file the settings were loaded from. On error the
// previous values stay in effect.
func (s *Settings) Reload() error {
	s.mu.RLock()
	p := s.path
	s.mu.RUnlock()
	if p == "" {
		return nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		// A deleted file keeps the last good values rather than resetting
		// to the defaults.
		return fmt.Errorf("reloading config file %s: %w", p, err)
	}
	v, err := decodeFile(p, data, os.LookupEnv)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values = v
	s.mu.Unlock()
	return nil
}

// Path returns the file the settings came from, if any.
func (s *Settings) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Values returns a copy of the current values.
func (s *Settings) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.values
	v.PassUnknown = maps.Clone(v.PassUnknown)
	v.PassKeys = maps.Clone(v.PassKeys)
	v.Mappings = slices.Clone(v.Mappings)
	v.Plugins = slices.Clone(v.Plugins)
	return v
}

// WaitPolicy reports whether ambiguous sequences wait, and for how long.
func (s *Settings) WaitPolicy() (bool, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Timeout, time.Duration(s.values.TimeoutLen) * time.Millisecond
}

// PassUnknown reports whether unmapped keys in the named mode go to the
// application.
func (s *Settings) PassUnknown(modeName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.PassUnknown[modeName]
}

// PassKeys returns the keys passed through unmapped on site, gathered from
// every matching pattern.
func (s *Settings) PassKeys(site string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, glob := range slices.Sorted(maps.Keys(s.values.PassKeys)) {
		if ok, _ := path.Match(glob, site); !ok {
			continue
		}
		for _, k := range s.values.PassKeys[glob] {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	return out
}

// ReportUnknown reports whether unresolved sequences are reported as errors.
func (s *Settings) ReportUnknown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.ReportUnknown
}

// Leader returns the <Leader> key.
func (s *Settings) Leader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.MapLeader
}

func readFile(p string, lookupEnv func(string) (string, bool)) (Values, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return Values{}, fmt.Errorf("reading config file %s: %w", p, err)
		}
		data = nil
	}
	return decodeFile(p, data, lookupEnv)
}

// decodeFile parses the contents of the file at p, applies environment
// overrides and resolves relative paths against the file's directory.
func decodeFile(p string, data []byte, lookupEnv func(string) (string, bool)) (Values, error) {
	v, err := parse(p, data)
	if err != nil {
		return Values{}, err
	}
	if err := applyEnv(&v, lookupEnv); err != nil {
		return Values{}, err
	}
	resolvePaths(&v, filepath.Dir(p))
	if err := v.Validate(); err != nil {
		return Values{}, fmt.Errorf("%s: %w", p, err)
	}
	return v, nil
}

func parse(source string, data []byte) (Values, error) {
	v := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) && len(serr.Errors) > 0 {
			perr.Line, perr.Column = serr.Errors[0].Position()
			perr.Message = "unknown setting " + strings.Join(serr.Errors[0].Key(), ".")
		}
		return Values{}, perr
	}
	return v, nil
}

// applyEnv overrides values from KEYHIVE_* variables.
func applyEnv(v *Values, lookupEnv func(string) (string, bool)) error {
	if s, ok := lookupEnv("KEYHIVE_LOG_LEVEL"); ok {
		v.LogLevel = s
	}
	if s, ok := lookupEnv("KEYHIVE_TIMEOUTLEN"); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: KEYHIVE_TIMEOUTLEN=%q", ErrInvalidSetting, s)
		}
		v.TimeoutLen = n
	}
	if s, ok := lookupEnv("KEYHIVE_MACRO_STORE"); ok {
		v.Macros.Store = s
	}
	if s, ok := lookupEnv("KEYHIVE_MACRO_PATH"); ok {
		v.Macros.Path = s
	}
	return nil
}

func resolvePaths(v *Values, dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, p := range v.Mappings {
		v.Mappings[i] = abs(p)
	}
	for i, p := range v.Plugins {
		v.Plugins[i] = abs(p)
	}
	v.Macros.Path = abs(v.Macros.Path)
}
