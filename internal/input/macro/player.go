package macro

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/keyhive/internal/input/dispatch"
)

// Feeder runs keys through dispatch. *dispatch.Processor implements it.
type Feeder interface {
	FeedKeys(keys string, opts dispatch.FeedOptions) error
	Interrupt()
}

// Player replays stored slots through a Feeder.
type Player struct {
	store  Store
	feeder Feeder

	mu      sync.Mutex
	last    rune
	playing atomic.Int32
}

// NewPlayer returns a player reading slots from store.
func NewPlayer(store Store, feeder Feeder) *Player {
	return &Player{store: store, feeder: feeder}
}

// Play feeds the keys stored in slot count times. LastPlayed replays the
// slot played most recently. Nothing is fed when the slot is unknown or
// empty.
func (p *Player) Play(slot rune, count int) error {
	name, err := p.resolve(slot)
	if err != nil {
		return err
	}

	m, ok, err := p.store.Get(string(name))
	if err != nil {
		return fmt.Errorf("failed to load macro %c: %w", name, err)
	}
	if !ok || m.Keys == "" {
		return fmt.Errorf("%w: %c", ErrEmptySlot, name)
	}

	p.mu.Lock()
	p.last = name
	p.mu.Unlock()

	if count < 1 {
		count = 1
	}

	p.playing.Add(1)
	defer p.playing.Add(-1)

	for range count {
		if err := p.feeder.FeedKeys(m.Keys, dispatch.FeedOptions{}); err != nil {
			return fmt.Errorf("macro %c: %w", name, err)
		}
	}
	return nil
}

func (p *Player) resolve(slot rune) (rune, error) {
	if slot == LastPlayed {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.last == 0 {
			return 0, ErrNoLastPlayed
		}
		return p.last, nil
	}
	name := Normalize(slot)
	if name == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return name, nil
}

// LastPlayed returns the slot played most recently, or 0.
func (p *Player) LastPlayed() rune {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// IsPlaying reports whether a macro is being fed.
func (p *Player) IsPlaying() bool { return p.playing.Load() > 0 }

// Cancel stops the macro being played. Keys typed during playback are
// delivered afterwards.
func (p *Player) Cancel() {
	if p.IsPlaying() {
		p.feeder.Interrupt()
	}
}
