package mode

import (
	"errors"
	"testing"
)

func newStack(t *testing.T) (*Registry, *Stack) {
	t.Helper()
	r := newDefaultRegistry(t)
	s, err := NewStack(r, r.Get(ModeNormal))
	if err != nil {
		t.Fatalf("NewStack() error = %v", err)
	}
	return r, s
}

func TestStackFloor(t *testing.T) {
	r, s := newStack(t)

	ops := []func() error{
		func() error { return s.Pop(nil, nil) },
		func() error { return s.Push(r.Get(ModeInsert), 0, Params{}) },
		func() error { return s.Push(r.Get(ModeQuote), 0, Params{}) },
		func() error { return s.Pop(nil, nil) },
		func() error { return s.Pop(nil, nil) },
		func() error { return s.Pop(nil, nil) },
		func() error { return s.Reset() },
		func() error { return s.Pop(r.Get(ModeVisual), nil) },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d error = %v", i, err)
		}
		if s.Len() < 1 {
			t.Fatalf("after op %d, Len() = %d", i, s.Len())
		}
	}
	if s.Main().Name() != ModeNormal {
		t.Errorf("Main() = %s, want normal", s.Main().Name())
	}
}

func TestPushPopRestoresBoundProperties(t *testing.T) {
	r, s := newStack(t)

	passAll := false
	status := "idle"
	if err := s.Save("passAll", Field(&passAll), nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("status", Field(&status), nil); err != nil {
		t.Fatal(err)
	}

	if err := s.Push(r.Get(ModePassThrough), 0, Params{}); err != nil {
		t.Fatal(err)
	}
	passAll = true
	status = "passing"

	if err := s.Pop(nil, nil); err != nil {
		t.Fatal(err)
	}
	if passAll || status != "idle" {
		t.Errorf("after pop passAll = %v, status = %q; want false, idle", passAll, status)
	}
}

func TestRestorePredicateVeto(t *testing.T) {
	r, s := newStack(t)

	value := 1
	keep := func(saved any, _ *Frame) bool { return saved.(int) != 1 }
	_ = s.Save("value", Field(&value), keep)

	_ = s.Push(r.Get(ModeInsert), 0, Params{})
	value = 2
	_ = s.Pop(nil, nil)
	if value != 2 {
		t.Errorf("vetoed restore changed value to %d", value)
	}
}

func TestPopToTarget(t *testing.T) {
	r, s := newStack(t)
	_ = s.Push(r.Get(ModeVisual), 0, Params{})
	_ = s.Push(r.Get(ModeInsert), 0, Params{})
	_ = s.Push(r.Get(ModeQuote), 0, Params{})

	if err := s.Pop(r.Get(ModeVisual), nil); err != nil {
		t.Fatal(err)
	}
	if s.Main().Name() != ModeVisual || s.Len() != 2 {
		t.Errorf("Pop(visual) left %s with Len %d, want visual with 2", s.Main().Name(), s.Len())
	}
}

func TestReplace(t *testing.T) {
	r, s := newStack(t)
	_ = s.Push(r.Get(ModeVisual), 0, Params{})
	_ = s.Push(r.Get(ModeInsert), 0, Params{})

	if err := s.Replace(r.Get(ModeCaret), r.Get(ModeVisual), nil); err != nil {
		t.Fatal(err)
	}
	if s.Main().Name() != ModeCaret || s.Len() != 2 {
		t.Errorf("Replace left %s with Len %d, want caret with 2", s.Main().Name(), s.Len())
	}
}

func TestHooks(t *testing.T) {
	r, s := newStack(t)
	var log []string

	insert := Params{
		OnEnter: func(tr Transition) error {
			if tr.Pop != nil {
				log = append(log, "insert:enter:pop")
			} else {
				log = append(log, "insert:enter:push")
			}
			return nil
		},
		OnLeave: func(tr Transition) error {
			if tr.Push != nil {
				log = append(log, "insert:leave:push")
			} else {
				log = append(log, "insert:leave:pop")
			}
			return nil
		},
	}
	_ = s.Push(r.Get(ModeInsert), 0, insert)
	_ = s.Push(r.Get(ModeQuote), 0, Params{OnEnter: func(Transition) error { return nil }})
	_ = s.Pop(nil, nil)
	_ = s.Pop(nil, nil)

	want := []string{
		"insert:enter:push",
		"insert:leave:push",
		// the quote frame inherits insert's OnLeave
		"insert:leave:pop",
		"insert:enter:pop",
		"insert:leave:pop",
	}
	if len(log) != len(want) {
		t.Fatalf("hooks = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("hooks[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestReentrantTransitionRefused(t *testing.T) {
	r, s := newStack(t)
	var nested error

	params := Params{
		OnEnter: func(Transition) error {
			nested = s.Push(r.Get(ModeQuote), 0, Params{})
			return nil
		},
	}
	if err := s.Push(r.Get(ModeInsert), 0, params); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(nested, ErrReentrantTransition) {
		t.Errorf("nested push error = %v, want ErrReentrantTransition", nested)
	}
	if s.Len() != 2 || s.Main().Name() != ModeInsert {
		t.Errorf("stack = %d frames, top %s; want 2, insert", s.Len(), s.Main().Name())
	}
}

func TestFailedEnterLeavesFrame(t *testing.T) {
	r, s := newStack(t)
	boom := errors.New("boom")
	err := s.Push(r.Get(ModeInsert), 0, Params{
		OnEnter: func(Transition) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Errorf("Push() error = %v, want boom", err)
	}
	if s.Main().Name() != ModeInsert {
		t.Errorf("frame should stay pushed, top = %s", s.Main().Name())
	}
}

func TestHaveAndExtended(t *testing.T) {
	r, s := newStack(t)
	line := r.Get(ModeLine)

	if !s.Have(r.Get(ModeCommand)) {
		t.Error("normal stack should have command")
	}
	if s.Have(line) {
		t.Error("line should not be active yet")
	}
	if err := s.AddExtended(line); err != nil {
		t.Fatal(err)
	}
	if !s.Have(line) {
		t.Error("line should be active after AddExtended")
	}
	if err := s.AddExtended(r.Get(ModeNormal)); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("AddExtended(normal) error = %v, want ErrUnknownMode", err)
	}
	_ = s.RemoveExtended(line)
	if s.Have(line) {
		t.Error("line should be inactive after RemoveExtended")
	}
}

func TestActiveModes(t *testing.T) {
	r, s := newStack(t)
	menu := r.Get(ModeMenu)
	_ = s.Push(r.Get(ModeInsert), 0, Params{KeyModes: []*Mode{menu}})

	got := s.ActiveModes()
	want := []string{ModeMenu, ModeInsert, ModeInput, ModeMain, ModeBase}
	if len(got) != len(want) {
		t.Fatalf("ActiveModes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].Name() != want[i] {
			t.Errorf("ActiveModes()[%d] = %s, want %s", i, got[i].Name(), want[i])
		}
	}
}

func TestOnChange(t *testing.T) {
	r, s := newStack(t)
	var kinds []ChangeKind
	unregister := s.OnChange(func(c Change) { kinds = append(kinds, c.Kind) })

	_ = s.Push(r.Get(ModeInsert), 0, Params{})
	_ = s.Pop(nil, nil)
	unregister()
	_ = s.Push(r.Get(ModeInsert), 0, Params{})

	if len(kinds) != 2 || kinds[0] != Pushed || kinds[1] != Popped {
		t.Errorf("changes = %v, want [Pushed Popped]", kinds)
	}
}
