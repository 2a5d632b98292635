package macro

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/keyhive/internal/input/dispatch"
	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

type env struct {
	t      *testing.T
	modes  *mode.Registry
	hives  *hive.Registry
	proc   *dispatch.Processor
	rec    *Recorder
	player *Player
	calls  []hive.Args
	errs   []error
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{t: t, modes: mode.NewRegistry()}
	if err := mode.RegisterDefaults(e.modes); err != nil {
		t.Fatal(err)
	}
	stack, err := mode.NewStack(e.modes, e.modes.Get(mode.ModeNormal))
	if err != nil {
		t.Fatal(err)
	}
	e.hives = hive.NewRegistry(e.modes)
	e.proc = dispatch.New(stack, e.hives,
		dispatch.WithScheduler(dispatch.NewManualScheduler()),
		dispatch.WithErrorHandler(func(err error) { e.errs = append(e.errs, err) }),
	)

	store := NewMemoryStore()
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e.rec = NewRecorder(store, WithClock(func() time.Time { return stamp }))
	e.player = NewPlayer(store, e.proc)
	e.proc.Hooks().Register(e.rec)

	e.bind("d", func(*hive.Args) error { return nil }, hive.WithFlags(hive.FlagMotion))
	e.bind("x", func(*hive.Args) error { return nil })
	e.bind("q", func(args *hive.Args) error {
		if e.rec.IsRecording() {
			_, err := e.rec.StopRecording(args.Events...)
			return err
		}
		return e.rec.StartRecording([]rune(args.Arg)[0])
	}, hive.WithArgIf(func() bool { return !e.rec.IsRecording() }))
	e.bind("@", func(args *hive.Args) error {
		return e.player.Play([]rune(args.Arg)[0], args.CountOr(1))
	}, hive.WithFlags(hive.FlagArg))
	return e
}

func (e *env) bind(name string, action hive.Action, opts ...hive.BindingOption) {
	e.t.Helper()
	wrapped := func(args *hive.Args) error {
		if name != "q" && name != "@" {
			e.calls = append(e.calls, *args)
		}
		return action(args)
	}
	_, err := e.hives.Builtin().Add([]*mode.Mode{e.modes.Get(mode.ModeNormal)}, []string{name}, name, wrapped, opts...)
	if err != nil {
		e.t.Fatalf("Add(%q) error = %v", name, err)
	}
}

func (e *env) typeKeys(keys string) {
	for _, ev := range key.ParseKeys(keys) {
		e.proc.ProcessKey(dispatch.Input{Event: ev})
	}
}

func (e *env) slot(name string) Slot {
	e.t.Helper()
	s, ok, err := e.rec.Store().Get(name)
	if err != nil || !ok {
		e.t.Fatalf("Get(%s) = %v, %v", name, ok, err)
	}
	return s
}

func TestRecordAndReplay(t *testing.T) {
	e := newEnv(t)

	e.typeKeys("qa2dwxq")
	if e.rec.IsRecording() {
		t.Fatal("still recording after q")
	}
	if got := e.slot("a").Keys; got != "2dwx" {
		t.Fatalf("slot a = %q, want 2dwx", got)
	}
	typed := e.calls
	e.calls = nil

	e.typeKeys("@a")
	if len(e.calls) != len(typed) {
		t.Fatalf("replayed %d calls, want %d", len(e.calls), len(typed))
	}
	for i, got := range e.calls {
		want := typed[i]
		if got.Keys != want.Keys || got.Count != want.Count || got.Motion != want.Motion {
			t.Errorf("replay %d = %s count=%d motion=%q, want %s count=%d motion=%q",
				i, got.Keys, got.Count, got.Motion, want.Keys, want.Count, want.Motion)
		}
		if !got.Macro {
			t.Errorf("replay %d not tagged as macro", i)
		}
	}
	if d := e.calls[0]; d.Keys != "d" || d.Count != 2 || d.Motion != "w" {
		t.Errorf("first call = %+v, want 2dw", d)
	}

	e.calls = nil
	e.typeKeys("@@")
	if len(e.calls) != 2 {
		t.Errorf("@@ replayed %d calls, want 2", len(e.calls))
	}
	if got := e.player.LastPlayed(); got != 'a' {
		t.Errorf("LastPlayed() = %q, want a", got)
	}
	if len(e.errs) != 0 {
		t.Errorf("errors = %v", e.errs)
	}
}

func TestReplayCount(t *testing.T) {
	e := newEnv(t)
	e.typeKeys("qbxq")
	e.calls = nil

	e.typeKeys("3@b")
	if len(e.calls) != 3 {
		t.Errorf("3@b ran x %d times, want 3", len(e.calls))
	}
}

func TestAppendSlot(t *testing.T) {
	e := newEnv(t)
	e.typeKeys("qaxq")
	e.typeKeys("qA2dwq")

	if got := e.slot("a").Keys; got != "x2dw" {
		t.Errorf("slot a = %q, want x2dw", got)
	}
	if _, ok, _ := e.rec.Store().Get("A"); ok {
		t.Error("upper-case slot stored separately")
	}
}

func TestRecorderErrors(t *testing.T) {
	e := newEnv(t)

	if err := e.rec.StartRecording('!'); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("StartRecording(!) = %v, want ErrInvalidSlot", err)
	}
	if _, err := e.rec.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("StopRecording() = %v, want ErrNotRecording", err)
	}
	if err := e.rec.StartRecording('a'); err != nil {
		t.Fatal(err)
	}
	if err := e.rec.StartRecording('b'); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording = %v, want ErrAlreadyRecording", err)
	}
	slot, err := e.rec.StopRecording()
	if err != nil {
		t.Fatal(err)
	}
	if slot.Name != "a" || slot.Keys != "" {
		t.Errorf("empty recording = %+v", slot)
	}
}

func TestPlayErrors(t *testing.T) {
	e := newEnv(t)

	if err := e.player.Play(LastPlayed, 1); !errors.Is(err, ErrNoLastPlayed) {
		t.Errorf("Play(@) = %v, want ErrNoLastPlayed", err)
	}
	if err := e.player.Play('!', 1); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("Play(!) = %v, want ErrInvalidSlot", err)
	}
	if err := e.player.Play('z', 1); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("Play(z) = %v, want ErrEmptySlot", err)
	}

	if err := e.rec.StartRecording('e'); err != nil {
		t.Fatal(err)
	}
	if _, err := e.rec.StopRecording(); err != nil {
		t.Fatal(err)
	}
	if err := e.player.Play('e', 1); !errors.Is(err, ErrEmptySlot) {
		t.Errorf("Play(e) = %v, want ErrEmptySlot", err)
	}
	if len(e.calls) != 0 {
		t.Errorf("failed plays executed %d bindings", len(e.calls))
	}
}

func TestMacroKeysNotRecorded(t *testing.T) {
	e := newEnv(t)
	e.typeKeys("qaxq")

	e.typeKeys("qb@aq")
	if got := e.slot("b").Keys; got != "@a" {
		t.Errorf("slot b = %q, want @a", got)
	}
}

func TestSelfPlayingMacroRefused(t *testing.T) {
	e := newEnv(t)
	if err := e.rec.Store().Put(Slot{Name: "s", Keys: "x@s"}); err != nil {
		t.Fatal(err)
	}

	if err := e.player.Play('s', 1); err != nil {
		t.Fatalf("Play(s) error = %v", err)
	}
	// The inner @s is refused while the outer one is running.
	if len(e.calls) != 2 {
		t.Errorf("x ran %d times, want 2", len(e.calls))
	}
	if len(e.errs) != 1 || !errors.Is(e.errs[0], hive.ErrRecursiveMapping) {
		t.Errorf("errs = %v, want one ErrRecursiveMapping", e.errs)
	}
}

func TestCancelPlayback(t *testing.T) {
	e := newEnv(t)
	e.bind("c", func(*hive.Args) error {
		e.player.Cancel()
		return nil
	})
	if err := e.rec.Store().Put(Slot{Name: "k", Keys: "xcx"}); err != nil {
		t.Fatal(err)
	}

	err := e.player.Play('k', 1)
	if !errors.Is(err, dispatch.ErrInterrupted) {
		t.Fatalf("Play(k) = %v, want ErrInterrupted", err)
	}
	if len(e.calls) != 2 {
		t.Errorf("ran %d bindings, want x and c only", len(e.calls))
	}
	if e.player.IsPlaying() {
		t.Error("IsPlaying() after cancel")
	}
}

func TestMacrosFilterAndDelete(t *testing.T) {
	e := newEnv(t)
	for _, name := range []string{"a", "b", "1"} {
		if err := e.rec.Store().Put(Slot{Name: name, Keys: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := e.rec.Macros("")
	if err != nil || len(all) != 3 {
		t.Fatalf("Macros(\"\") = %d, %v", len(all), err)
	}
	letters, err := e.rec.Macros("^[a-z]$")
	if err != nil || len(letters) != 2 {
		t.Errorf("Macros(letters) = %d, %v", len(letters), err)
	}
	if _, err := e.rec.Macros("["); err == nil {
		t.Error("Macros([) accepted a bad pattern")
	}

	n, err := e.rec.Delete("[0-9]")
	if err != nil || n != 1 {
		t.Errorf("Delete(digits) = %d, %v", n, err)
	}
	left, _ := e.rec.Macros("")
	if len(left) != 2 {
		t.Errorf("%d slots left, want 2", len(left))
	}
}
