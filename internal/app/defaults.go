package app

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dshills/keyhive/internal/command"
	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/mode"
)

type builtinBinding struct {
	modes  []string
	keys   []string
	desc   string
	action hive.Action
	opts   []hive.BindingOption
}

// builtinBindings returns the bindings every engine starts with.
func (e *Engine) builtinBindings() []builtinBinding {
	noRepeat := hive.WithFlags(hive.FlagNoRepeat)
	normalVisual := []string{mode.ModeNormal, mode.ModeVisual}

	return []builtinBinding{
		{[]string{mode.ModeBase}, []string{"<Esc>"}, "Leave the current mode", e.escape, []hive.BindingOption{noRepeat}},
		{[]string{mode.ModeBase}, []string{"<C-v>"}, "Pass the next key through", e.pushAction(mode.ModeQuote), []hive.BindingOption{noRepeat}},
		{[]string{mode.ModeBase}, []string{"<C-c>"}, "Interrupt macros and pending keys", e.interrupt, []hive.BindingOption{noRepeat}},
		{[]string{mode.ModeCommand}, []string{"<C-z>"}, "Pass all keys through until <Esc>", e.pushAction(mode.ModePassThrough), []hive.BindingOption{noRepeat}},
		{[]string{mode.ModeNormal}, []string{"i"}, "Enter insert mode", e.pushAction(mode.ModeInsert), []hive.BindingOption{noRepeat}},
		{[]string{mode.ModeNormal}, []string{"v"}, "Enter visual mode", e.pushAction(mode.ModeVisual), []hive.BindingOption{noRepeat}},
		{normalVisual, []string{":"}, "Open the command line", e.pushAction(mode.ModeCommandLine), []hive.BindingOption{noRepeat}},
		{normalVisual, []string{"q"}, "Record a macro into a slot, or stop recording", e.record, []hive.BindingOption{
			noRepeat,
			hive.WithArgIf(func() bool { return !e.recorder.IsRecording() }),
		}},
		{normalVisual, []string{"@"}, "Play the macro in a slot", e.play, []hive.BindingOption{
			hive.WithFlags(hive.FlagArg | hive.FlagCount | hive.FlagNoRepeat),
		}},
		{[]string{mode.ModeNormal}, []string{"."}, "Repeat the last action", e.repeat, []hive.BindingOption{
			hive.WithFlags(hive.FlagCount | hive.FlagNoRepeat),
		}},
	}
}

func registerBindings(e *Engine) error {
	h := e.hives.Builtin()
	var errs []error
	for _, b := range e.builtinBindings() {
		modes, err := e.lookupModes(b.modes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := h.Add(modes, b.keys, b.desc, b.action, b.opts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) lookupModes(names []string) ([]*mode.Mode, error) {
	modes := make([]*mode.Mode, 0, len(names))
	for _, name := range names {
		m, err := e.modes.Lookup(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

// escape pops insert-style and pass-through modes and resets the stack
// from anywhere else.
func (e *Engine) escape(*hive.Args) error {
	top := e.stack.Main()
	if top.Has(mode.FlagInsert) || top.Has(mode.FlagPassThrough) {
		return e.stack.Pop(nil, nil)
	}
	return e.stack.Reset()
}

func (e *Engine) pushAction(name string) hive.Action {
	return func(*hive.Args) error {
		return e.push(name)
	}
}

func (e *Engine) push(name string) error {
	m, err := e.modes.Lookup(name)
	if err != nil {
		return err
	}
	return e.stack.Push(m, 0, mode.Params{})
}

func (e *Engine) interrupt(*hive.Args) error {
	e.player.Cancel()
	e.proc.Interrupt()
	return nil
}

func (e *Engine) record(args *hive.Args) error {
	if e.recorder.IsRecording() {
		_, err := e.recorder.StopRecording(args.Events...)
		return err
	}
	slot, err := slotArg(args.Arg)
	if err != nil {
		return err
	}
	return e.recorder.StartRecording(slot)
}

func (e *Engine) play(args *hive.Args) error {
	slot, err := slotArg(args.Arg)
	if err != nil {
		return err
	}
	return e.player.Play(slot, args.CountOr(1))
}

// repeat runs the last repeatable binding. Its failure has already been
// reported by the processor.
func (e *Engine) repeat(args *hive.Args) error {
	err := e.proc.RepeatLast(args.Count)
	var execErr *dispatch.ExecError
	if errors.As(err, &execErr) {
		return nil
	}
	return err
}

func slotArg(arg string) (rune, error) {
	r := []rune(arg)
	if len(r) != 1 {
		return 0, usage("slot must be a single character, got %q", arg)
	}
	return r[0], nil
}

// registerCommands adds the builtin commands that mapping files and the
// command line can call.
func registerCommands(e *Engine) error {
	cmds := map[string]command.Handler{
		"echo": func(args []string, _ command.Context) error {
			e.logger.Info("%s", strings.Join(args, " "))
			return nil
		},
		"push": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("push <mode>")
			}
			return e.push(args[0])
		},
		"pop": func([]string, command.Context) error {
			return e.stack.Pop(nil, nil)
		},
		"reset": func([]string, command.Context) error {
			return e.stack.Reset()
		},
		"record": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("record <slot>")
			}
			slot, err := slotArg(args[0])
			if err != nil {
				return err
			}
			return e.recorder.StartRecording(slot)
		},
		"stop": func([]string, command.Context) error {
			_, err := e.recorder.StopRecording()
			return err
		},
		"play": func(args []string, ctx command.Context) error {
			if len(args) < 1 || len(args) > 2 {
				return usage("play <slot> [count]")
			}
			slot, err := slotArg(args[0])
			if err != nil {
				return err
			}
			count := max(ctx.Count, 1)
			if len(args) == 2 {
				if count, err = strconv.Atoi(args[1]); err != nil {
					return usage("play <slot> [count]")
				}
			}
			return e.player.Play(slot, count)
		},
		"repeat": func(_ []string, ctx command.Context) error {
			return e.proc.RepeatLast(ctx.Count)
		},
		"map": func(args []string, _ command.Context) error {
			return e.mapCommand(args, false)
		},
		"noremap": func(args []string, _ command.Context) error {
			return e.mapCommand(args, true)
		},
		"unmap": func(args []string, _ command.Context) error {
			if len(args) != 2 {
				return usage("unmap <modes> <keys>")
			}
			modes, err := e.lookupModes(strings.Split(args[0], ","))
			if err != nil {
				return err
			}
			removed := false
			for _, m := range modes {
				removed = e.hives.User().Remove(m, args[1]) || removed
			}
			if !removed {
				return usage("no mapping for %s", args[1])
			}
			return nil
		},
		"source": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("source <file>")
			}
			_, err := e.loader.LoadFile(args[0])
			return err
		},
		"plugin": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("plugin <file>")
			}
			_, err := e.plugins.Load(args[0])
			return err
		},
		"unload": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("unload <plugin>")
			}
			return e.plugins.Unload(args[0])
		},
		"reload": func([]string, command.Context) error {
			return e.Reload()
		},
		"site": func(args []string, _ command.Context) error {
			if len(args) != 1 {
				return usage("site <name>")
			}
			return e.proc.SetSite(args[0])
		},
	}
	for name, h := range cmds {
		e.commands.Register(name, h)
	}
	return nil
}

// mapCommand handles "map <modes> <keys> <rhs...>". Modes are separated
// by commas.
func (e *Engine) mapCommand(args []string, noremap bool) error {
	if len(args) < 3 {
		return usage("map <modes> <keys> <rhs>")
	}
	modes, err := e.lookupModes(strings.Split(args[0], ","))
	if err != nil {
		return err
	}
	rhs := strings.Join(args[2:], " ")
	flags := hive.FlagUser | hive.FlagCount
	if noremap {
		flags |= hive.FlagNoRemap
	}
	_, err = e.hives.User().Add(modes, []string{args[1]}, "", hive.KeysAction(e.feeder(), rhs, noremap),
		hive.WithFlags(flags), hive.WithRHS(rhs))
	return err
}
