package dispatch

import (
	"errors"

	"github.com/dshills/keyhive/internal/input/key"
)

// FeedKeys runs keys through dispatch as if they were typed one by one.
// Feeds may nest. Typed keys that arrive meanwhile are delivered once the
// outermost feed returns.
func (p *Processor) FeedKeys(keys string, opts FeedOptions) error {
	if p.closed {
		return ErrProcessorClosed
	}
	if p.feeding == 0 {
		p.interrupted.Store(false)
	}
	p.feeding++
	if opts.Silent {
		p.silent++
	}

	err := p.feed(key.ParseKeys(keys), opts)

	if opts.Silent {
		p.silent--
	}
	p.feeding--
	if p.feeding == 0 {
		p.interrupted.Store(false)
		p.flush()
	}
	return err
}

func (p *Processor) feed(events []key.Event, opts FeedOptions) error {
	for _, ev := range events {
		if p.interrupted.Load() {
			return ErrInterrupted
		}
		if ev.Key == key.KeyNop {
			continue
		}
		res := p.ProcessKey(Input{
			Event:   ev,
			Macro:   !opts.Typed,
			NoRemap: opts.NoRemap,
			SkipMap: opts.SkipMap,
			fed:     true,
		})
		if errors.Is(res.Err, ErrMaxDepth) {
			return res.Err
		}
	}
	if p.interrupted.Load() {
		return ErrInterrupted
	}
	return nil
}

// flush delivers keys queued during a feed, in arrival order.
func (p *Processor) flush() {
	for len(p.queue) > 0 && p.feeding == 0 && !p.closed {
		in := p.queue[0]
		p.queue = p.queue[1:]
		p.ProcessKey(in)
	}
}
