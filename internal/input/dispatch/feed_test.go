package dispatch

import (
	"errors"
	"slices"
	"testing"

	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

func TestFeedKeysResolvesLikeTyping(t *testing.T) {
	f := newFixture(t)
	f.bind(mode.ModeNormal, "d", hive.FlagMotion)
	f.bind(mode.ModeNormal, "gg", 0)

	if err := f.proc.FeedKeys("2dwgg", FeedOptions{}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(f.called(), []string{"d", "gg"}) {
		t.Fatalf("called = %v", f.called())
	}
	if c := f.calls[0]; c.Count != 2 || c.Motion != "w" || !c.Macro {
		t.Errorf("d = %+v, want count 2, motion w, macro", c)
	}
}

func TestFeedQueuesTypedKeys(t *testing.T) {
	f := newFixture(t)
	f.bind(mode.ModeNormal, "j", 0)
	f.bind(mode.ModeNormal, "k", 0)

	var queued Result
	f.bindAction(mode.ModeNormal, "m", 0, func(*hive.Args) error {
		queued = f.proc.ProcessKey(Input{Event: key.NewRuneEvent('j', key.ModNone)})
		return nil
	})

	if err := f.proc.FeedKeys("mk", FeedOptions{}); err != nil {
		t.Fatal(err)
	}
	if queued.State != StateQueued {
		t.Errorf("typed key during feed = %v, want queued", queued.State)
	}
	if !slices.Equal(f.called(), []string{"m", "k", "j"}) {
		t.Errorf("called = %v, want [m k j]", f.called())
	}
	if f.calls[2].Macro {
		t.Error("a queued typed key should not be marked as macro")
	}
}

func TestCancelKeyInterruptsFeed(t *testing.T) {
	f := newFixture(t)
	f.bind(mode.ModeNormal, "k", 0)
	f.bindAction(mode.ModeNormal, "m", 0, func(*hive.Args) error {
		f.proc.ProcessKey(Input{Event: key.NewRuneEvent('c', key.ModCtrl)})
		return nil
	})

	err := f.proc.FeedKeys("mkk", FeedOptions{})
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("FeedKeys() error = %v, want ErrInterrupted", err)
	}
	if !slices.Equal(f.called(), []string{"m"}) {
		t.Errorf("called = %v, want [m]", f.called())
	}

	if err := f.proc.FeedKeys("k", FeedOptions{}); err != nil {
		t.Errorf("next feed error = %v, want nil", err)
	}
}

func TestUnknownKeyStopsFeed(t *testing.T) {
	f := newFixture(t)
	f.bind(mode.ModeNormal, "k", 0)

	err := f.proc.FeedKeys("kzk", FeedOptions{})
	if !errors.Is(err, ErrInterrupted) {
		t.Errorf("FeedKeys() error = %v, want ErrInterrupted", err)
	}
	if !slices.Equal(f.called(), []string{"k"}) {
		t.Errorf("called = %v, want [k]", f.called())
	}
}

func TestFeedOptions(t *testing.T) {
	var status []string
	f := newFixture(t, WithStatus(func(s string) { status = append(status, s) }))
	f.bind(mode.ModeNormal, "gg", 0)

	if err := f.proc.FeedKeys("gg", FeedOptions{Silent: true}); err != nil {
		t.Fatal(err)
	}
	if len(status) != 0 {
		t.Errorf("silent feed updated status %v", status)
	}

	if err := f.proc.FeedKeys("gg", FeedOptions{Typed: true}); err != nil {
		t.Fatal(err)
	}
	if len(status) == 0 || status[0] != "g" {
		t.Errorf("status = %v, want pending g first", status)
	}
	if f.calls[1].Macro {
		t.Error("typed feed should not be marked as macro")
	}

	if err := f.proc.FeedKeys("gx", FeedOptions{SkipMap: true}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(f.host.passed, []string{"g", "x"}) || len(f.calls) != 2 {
		t.Errorf("skipmap passed %v, calls %v", f.host.passed, f.called())
	}

	if err := f.proc.FeedKeys("<Nop>", FeedOptions{}); err != nil || f.host.beeps != 0 {
		t.Errorf("<Nop> = %v, beeps %d", err, f.host.beeps)
	}
}
