package lua

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/mode"
)

// install sets the keys table and print for p.
func (h *Host) install(p *Plugin) {
	L := p.state.L
	m := &keysModule{host: h, plugin: p}

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"map":     m.mapKeys,
		"unmap":   m.unmap,
		"mode":    m.mode,
		"feed":    m.feed,
		"push":    m.push,
		"pop":     m.pop,
		"current": m.current,
		"log":     m.log,
	})
	L.SetGlobal("keys", mod)
	L.SetGlobal("print", L.NewFunction(m.log))
}

type keysModule struct {
	host   *Host
	plugin *Plugin
}

// keys.map(modes, lhs, rhs, opts?)
func (m *keysModule) mapKeys(L *lua.LState) int {
	modes := m.checkModes(L, 1)
	names := checkStrings(L, 2)
	opts := L.OptTable(4, L.NewTable())

	flags := hive.FlagUser
	for field, flag := range map[string]hive.Flags{
		"count":   hive.FlagCount,
		"arg":     hive.FlagArg,
		"motion":  hive.FlagMotion,
		"noremap": hive.FlagNoRemap,
		"silent":  hive.FlagSilent,
	} {
		if lua.LVAsBool(opts.RawGetString(field)) {
			flags |= flag
		}
	}
	desc := lua.LVAsString(opts.RawGetString("desc"))

	var action hive.Action
	var rhs string
	switch v := L.CheckAny(3).(type) {
	case lua.LString:
		rhs = string(v)
		action = hive.KeysAction(m.feeder(flags), rhs, flags&hive.FlagNoRemap != 0)
		flags |= hive.FlagCount
	case *lua.LFunction:
		action = m.callback(v, names[0])
		rhs = "<lua>"
	default:
		L.ArgError(3, "string or function expected")
		return 0
	}

	if _, err := m.plugin.hive.Add(modes, names, desc, action, hive.WithFlags(flags), hive.WithRHS(rhs)); err != nil {
		L.RaiseError("map: %v", err)
	}
	return 0
}

// keys.unmap(modes, lhs) -> bool
func (m *keysModule) unmap(L *lua.LState) int {
	modes := m.checkModes(L, 1)
	removed := false
	for _, md := range modes {
		for _, name := range checkStrings(L, 2) {
			if m.plugin.hive.Remove(md, name) {
				removed = true
			}
		}
	}
	L.Push(lua.LBool(removed))
	return 1
}

// keys.mode(name, opts?)
func (m *keysModule) mode(L *lua.LState) int {
	name := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())

	bases := []string{mode.ModeCommand}
	if t, ok := opts.RawGetString("bases").(*lua.LTable); ok {
		bases = tableStrings(t)
	}

	var flags mode.Flags
	for field, flag := range map[string]mode.Flags{
		"insert":      mode.FlagInsert | mode.FlagNoCount,
		"passthrough": mode.FlagPassThrough | mode.FlagNoCount,
		"nocount":     mode.FlagNoCount,
		"hidden":      mode.FlagHidden,
	} {
		if lua.LVAsBool(opts.RawGetString(field)) {
			flags |= flag
		}
	}
	modeOpts := []mode.Option{
		mode.WithFlags(flags),
		mode.WithDescription(lua.LVAsString(opts.RawGetString("desc"))),
	}
	if c := []rune(lua.LVAsString(opts.RawGetString("char"))); len(c) == 1 {
		modeOpts = append(modeOpts, mode.WithChar(c[0]))
	}

	if _, err := m.host.stack.Registry().Register(name, bases, modeOpts...); err != nil {
		L.RaiseError("mode: %v", err)
		return 0
	}
	m.plugin.modes = append(m.plugin.modes, name)
	return 0
}

// keys.feed(keys, opts?)
func (m *keysModule) feed(L *lua.LState) int {
	keys := L.CheckString(1)
	opts := L.OptTable(2, L.NewTable())
	err := m.host.feeder.FeedKeys(keys, dispatch.FeedOptions{
		NoRemap: lua.LVAsBool(opts.RawGetString("noremap")),
		Silent:  lua.LVAsBool(opts.RawGetString("silent")),
	})
	if err != nil {
		L.RaiseError("feed: %v", err)
	}
	return 0
}

// keys.push(mode)
func (m *keysModule) push(L *lua.LState) int {
	md, err := m.host.stack.Registry().Lookup(L.CheckString(1))
	if err == nil {
		err = m.host.stack.Push(md, 0, mode.Params{})
	}
	if err != nil {
		L.RaiseError("push: %v", err)
	}
	return 0
}

// keys.pop()
func (m *keysModule) pop(L *lua.LState) int {
	if err := m.host.stack.Pop(nil, nil); err != nil {
		L.RaiseError("pop: %v", err)
	}
	return 0
}

// keys.current() -> string
func (m *keysModule) current(L *lua.LState) int {
	L.Push(lua.LString(m.host.stack.Main().Name()))
	return 1
}

// keys.log(...)
func (m *keysModule) log(L *lua.LState) int {
	var msg string
	for i := 1; i <= L.GetTop(); i++ {
		if i > 1 {
			msg += " "
		}
		msg += L.ToStringMeta(L.Get(i)).String()
	}
	m.host.logger.Info("[%s] %s", m.plugin.Name, msg)
	return 0
}

// callback wraps a Lua function as a binding action.
func (m *keysModule) callback(fn *lua.LFunction, name string) hive.Action {
	return func(args *hive.Args) error {
		L := m.plugin.state.L
		t := L.NewTable()
		t.RawSetString("keys", lua.LString(args.Keys))
		t.RawSetString("count", lua.LNumber(args.Count))
		t.RawSetString("arg", lua.LString(args.Arg))
		t.RawSetString("motion", lua.LString(args.Motion))
		t.RawSetString("motion_count", lua.LNumber(args.MotionCount))
		t.RawSetString("macro", lua.LBool(args.Macro))

		ret, err := m.plugin.state.CallFunction(fn, t)
		if err != nil {
			return &ScriptError{Plugin: m.plugin.Name, Op: "mapping " + name, Err: err}
		}
		if s, ok := ret.(lua.LString); ok && s != "" {
			return &ScriptError{Plugin: m.plugin.Name, Op: "mapping " + name, Err: fmt.Errorf("%s", string(s))}
		}
		return nil
	}
}

func (m *keysModule) feeder(flags hive.Flags) hive.Feeder {
	return func(keys string, noremap bool) error {
		return m.host.feeder.FeedKeys(keys, dispatch.FeedOptions{
			NoRemap: noremap,
			Silent:  flags&hive.FlagSilent != 0,
		})
	}
}

// checkModes reads a mode name or list of names at argument n.
func (m *keysModule) checkModes(L *lua.LState, n int) []*mode.Mode {
	reg := m.host.stack.Registry()
	var modes []*mode.Mode
	for _, name := range checkStrings(L, n) {
		md, err := reg.Lookup(name)
		if err != nil {
			L.ArgError(n, err.Error())
			return nil
		}
		modes = append(modes, md)
	}
	return modes
}

// checkStrings reads a string or list of strings at argument n.
func checkStrings(L *lua.LState, n int) []string {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		out := tableStrings(v)
		if len(out) == 0 {
			L.ArgError(n, "empty list")
		}
		return out
	default:
		L.ArgError(n, "string or list of strings expected")
		return nil
	}
}

func tableStrings(t *lua.LTable) []string {
	var out []string
	for i := 1; i <= t.Len(); i++ {
		if s, ok := t.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
