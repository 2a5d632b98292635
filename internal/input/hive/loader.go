package hive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/input/mode"
)

// Feeder injects keys into dispatch.
type Feeder func(keys string, noremap bool) error

// CommandAction returns an action that runs cmdline through engine.
func CommandAction(engine command.Engine, cmdline string) Action {
	return func(args *Args) error {
		return engine.Execute(cmdline, command.Context{
			Keys:   args.Keys,
			Count:  args.Count,
			Arg:    args.Arg,
			Motion: args.Motion,
		})
	}
}

// KeysAction returns an action that feeds rhs, repeated count times.
func KeysAction(feed Feeder, rhs string, noremap bool) Action {
	return func(args *Args) error {
		for i := 0; i < args.CountOr(1); i++ {
			if err := feed(rhs, noremap); err != nil {
				return err
			}
		}
		return nil
	}
}

// File is the YAML structure of a mapping file:
//
//	hive: user
//	mappings:
//	  - modes: [n, v]
//	    keys: [gT, <C-p>]
//	    command: tabprevious
//	  - modes: [normal]
//	    keys: [Y]
//	    rhs: y$
//	    noremap: true
type File struct {
	Hive        string        `yaml:"hive"`
	Description string        `yaml:"description,omitempty"`
	Mappings    []MappingSpec `yaml:"mappings"`
}

// MappingSpec is one mapping in a File.
type MappingSpec struct {
	Modes       []string `yaml:"modes"`
	Keys        []string `yaml:"keys"`
	Command     string   `yaml:"command,omitempty"`
	RHS         string   `yaml:"rhs,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Count       bool     `yaml:"count,omitempty"`
	Arg         bool     `yaml:"arg,omitempty"`
	Motion      bool     `yaml:"motion,omitempty"`
	NoRemap     bool     `yaml:"noremap,omitempty"`
	Silent      bool     `yaml:"silent,omitempty"`
}

// Loader reads mapping files into a Registry.
type Loader struct {
	registry *Registry
	commands command.Engine
	feed     Feeder
}

// NewLoader creates a loader. commands runs "command" mappings and feed
// runs "rhs" mappings.
func NewLoader(registry *Registry, commands command.Engine, feed Feeder) *Loader {
	return &Loader{registry: registry, commands: commands, feed: feed}
}

// LoadFile loads a mapping file and returns the number of bindings added.
func (l *Loader) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening mapping file: %w", err)
	}
	defer f.Close()

	n, err := l.LoadReader(f)
	if err != nil {
		return n, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return n, nil
}

// LoadReader loads mappings from YAML.
func (l *Loader) LoadReader(r io.Reader) (int, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("decoding mappings: %w", err)
	}
	return l.Apply(&file)
}

// Apply registers the mappings of file, creating its hive if needed.
func (l *Loader) Apply(file *File) (int, error) {
	name := file.Hive
	if name == "" {
		name = UserHive
	}
	h := l.registry.Hive(name)
	if h == nil {
		var err error
		h, err = l.registry.AddHive(name, WithDescription(file.Description))
		if err != nil {
			return 0, err
		}
	}

	for i, spec := range file.Mappings {
		if err := l.add(h, spec); err != nil {
			return i, fmt.Errorf("mapping %d: %w", i+1, err)
		}
	}
	return len(file.Mappings), nil
}

func (l *Loader) add(h *Hive, spec MappingSpec) error {
	modes := make([]*mode.Mode, 0, len(spec.Modes))
	for _, name := range spec.Modes {
		m, err := l.registry.Modes().Lookup(name)
		if err != nil {
			return err
		}
		modes = append(modes, m)
	}

	flags := FlagUser
	if spec.Count {
		flags |= FlagCount
	}
	if spec.Arg {
		flags |= FlagArg
	}
	if spec.Motion {
		flags |= FlagMotion
	}
	if spec.NoRemap {
		flags |= FlagNoRemap
	}
	if spec.Silent {
		flags |= FlagSilent
	}

	var action Action
	var rhs string
	switch {
	case spec.Command != "" && spec.RHS != "":
		return fmt.Errorf("%w: both command and rhs given", ErrNoAction)
	case spec.Command != "":
		if l.commands == nil {
			return fmt.Errorf("%w: no command engine", ErrNoAction)
		}
		action = CommandAction(l.commands, spec.Command)
		rhs = ":" + spec.Command
	case spec.RHS != "":
		if l.feed == nil {
			return fmt.Errorf("%w: no key feeder", ErrNoAction)
		}
		action = KeysAction(l.feed, spec.RHS, spec.NoRemap)
		rhs = spec.RHS
		flags |= FlagCount
	}

	_, err := h.Add(modes, spec.Keys, spec.Description, action, WithFlags(flags), WithRHS(rhs))
	return err
}
