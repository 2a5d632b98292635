// Package termkey translates terminal key events from tcell into key
// events, and back again for injecting keys into a screen.
package termkey

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyhive/internal/input/key"
)

// specialKeys maps tcell's named keys. Control letters are handled
// separately because several share codes with Tab, Return and Backspace.
var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyReturn,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
}

var tcellKeys = map[key.Key]tcell.Key{}

func init() {
	for tk, k := range specialKeys {
		if tk == tcell.KeyBackspace {
			continue
		}
		tcellKeys[k] = tk
	}
}

// FromTcell converts a tcell key event. It reports false for keys that
// have no notation.
func FromTcell(ev *tcell.EventKey) (key.Event, bool) {
	mods := fromTcellMods(ev.Modifiers())
	k := ev.Key()

	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if r == 0 {
			return key.Event{}, false
		}
		return key.NewRuneEvent(r, mods), true
	case k == tcell.KeyBacktab:
		return key.NewSpecialEvent(key.KeyTab, mods.With(key.ModShift)), true
	case k == tcell.KeyCtrlSpace:
		return key.NewRuneEvent(' ', mods.With(key.ModCtrl)), true
	}

	if special, ok := specialKeys[k]; ok {
		return key.NewSpecialEvent(special, mods), true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return key.NewRuneEvent(rune('a'+(k-tcell.KeyCtrlA)), mods.With(key.ModCtrl)), true
	}
	return key.Event{}, false
}

// ToTcell converts ev into an event a tcell screen would deliver for it.
func ToTcell(ev key.Event) *tcell.EventKey {
	mods := toTcellMods(ev.Modifiers)
	if ev.Key == key.KeyRune {
		r := ev.Rune
		if ev.Modifiers.Has(key.ModCtrl) && r >= 'a' && r <= 'z' {
			return tcell.NewEventKey(tcell.KeyCtrlA+tcell.Key(r-'a'), 0, mods)
		}
		return tcell.NewEventKey(tcell.KeyRune, r, mods)
	}
	if ev.Key == key.KeyTab && ev.Modifiers.Has(key.ModShift) {
		return tcell.NewEventKey(tcell.KeyBacktab, 0, mods&^tcell.ModShift)
	}
	if tk, ok := tcellKeys[ev.Key]; ok {
		return tcell.NewEventKey(tk, 0, mods)
	}
	return nil
}

func fromTcellMods(m tcell.ModMask) key.Modifier {
	var out key.Modifier
	if m&tcell.ModShift != 0 {
		out = out.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		out = out.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		out = out.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		out = out.With(key.ModMeta)
	}
	return out
}

func toTcellMods(m key.Modifier) tcell.ModMask {
	out := tcell.ModNone
	if m.Has(key.ModShift) {
		out |= tcell.ModShift
	}
	if m.Has(key.ModCtrl) {
		out |= tcell.ModCtrl
	}
	if m.Has(key.ModAlt) {
		out |= tcell.ModAlt
	}
	if m.Has(key.ModMeta) {
		out |= tcell.ModMeta
	}
	return out
}
