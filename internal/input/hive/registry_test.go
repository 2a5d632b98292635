package hive

import (
	"errors"
	"testing"

	"github.com/dshills/keyhive/internal/input/mode"
)

func TestRegistryPriority(t *testing.T) {
	modes := newModes(t)
	normal := modes.Get(mode.ModeNormal)
	r := NewRegistry(modes)

	_, _ = r.Builtin().Add([]*mode.Mode{normal}, []string{"g"}, "builtin g", nop)
	_, _ = r.Builtin().Add([]*mode.Mode{normal}, []string{"gg"}, "builtin gg", nop)
	user, _ := r.User().Add([]*mode.Mode{normal}, []string{"g"}, "user g", nop)

	if got := r.Get(normal, "g", false); got != user {
		t.Errorf("Get(g) = %v, want user binding", got.Description)
	}
	if got := r.Get(normal, "gg", false); got == nil || got.Hive() != r.Builtin() {
		t.Error("Get(gg) should fall through to builtin")
	}

	plugin, err := r.AddHive("plugin:test")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = plugin.Add([]*mode.Mode{normal}, []string{"gp"}, "", nop)

	if got := r.Candidates(normal, "g", false); got != 2 {
		t.Errorf("Candidates(g) = %d, want 2 summed over hives", got)
	}
	if r.Hives()[0] != plugin {
		t.Error("added hive should have the highest priority")
	}
}

func TestRemoveHive(t *testing.T) {
	modes := newModes(t)
	normal := modes.Get(mode.ModeNormal)
	r := NewRegistry(modes)

	h, _ := r.AddHive("plugin:x")
	_, _ = h.Add([]*mode.Mode{normal}, []string{"zz"}, "", nop)

	if _, err := r.AddHive("plugin:x"); !errors.Is(err, ErrDuplicateHive) {
		t.Errorf("duplicate AddHive error = %v, want ErrDuplicateHive", err)
	}
	if err := r.RemoveHive("plugin:x"); err != nil {
		t.Fatal(err)
	}
	if r.Get(normal, "zz", false) != nil || r.Candidates(normal, "z", false) != 0 {
		t.Error("bindings of a removed hive should be gone")
	}
	if err := r.RemoveHive(BuiltinHive); !errors.Is(err, ErrBuiltinHive) {
		t.Errorf("RemoveHive(builtin) error = %v, want ErrBuiltinHive", err)
	}
	if err := r.RemoveHive("nope"); !errors.Is(err, ErrUnknownHive) {
		t.Errorf("RemoveHive(nope) error = %v, want ErrUnknownHive", err)
	}
}

func TestResolve(t *testing.T) {
	modes := newModes(t)
	normal, command := modes.Get(mode.ModeNormal), modes.Get(mode.ModeCommand)
	r := NewRegistry(modes)

	inCommand, _ := r.Builtin().Add([]*mode.Mode{command}, []string{"j"}, "", nop)
	inNormal, _ := r.User().Add([]*mode.Mode{normal}, []string{"j"}, "", nop)
	_, _ = r.Builtin().Add([]*mode.Mode{command}, []string{"jk"}, "", nop)

	active := modes.AllBases(normal)
	m := Resolve(active, r.Hives(), "j")
	if m.Binding != inNormal {
		t.Error("the main mode should win over its bases")
	}
	if m.Candidates != 1 || m.Hard != 1 {
		t.Errorf("Resolve(j) candidates = %d/%d, want 1/1", m.Candidates, m.Hard)
	}

	m = Resolve(modes.AllBases(modes.Get(mode.ModeVisual)), r.Hives(), "j")
	if m.Binding != inCommand {
		t.Error("visual should inherit j from command")
	}
}

func TestActiveFiltersSites(t *testing.T) {
	modes := newModes(t)
	r := NewRegistry(modes)
	_, _ = r.AddHive("site", WithFilter(func(site string) bool { return site == "example.com" }))

	if n := len(r.Active("example.com")); n != 3 {
		t.Errorf("Active(example.com) = %d hives, want 3", n)
	}
	if n := len(r.Active("other.org")); n != 2 {
		t.Errorf("Active(other.org) = %d hives, want 2", n)
	}
}
