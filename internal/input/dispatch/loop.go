package dispatch

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a cancellable one-shot callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback had not
	// run yet.
	Stop() bool
}

// Scheduler runs a callback after a delay on the dispatch goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Loop serializes work onto the goroutine that calls Run.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer tasks.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.tasks:
			f()
		}
	}
}

// Post queues f. It blocks while the queue is full and returns false once
// the loop is closed.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- f:
		return true
	case <-l.done:
		return false
	}
}

// Close stops Run. Tasks still queued are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// AfterFunc posts f to the loop after d. Stopping the timer also cancels a
// callback that has fired but not yet run.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}

// ManualScheduler is a Scheduler driven by Advance. Callbacks run on the
// goroutine that calls Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManualScheduler creates a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s        *ManualScheduler
	deadline time.Duration
	seq      int
	f        func()
	stopped  bool
}

// AfterFunc schedules f to run once Advance passes d from now.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, deadline: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d and runs every callback that became due,
// in deadline order. It returns how many callbacks ran.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	ran := 0
	for {
		t := s.next(target)
		if t == nil {
			break
		}
		t.f()
		ran++
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
	return ran
}

// next pops the earliest live timer due by target.
func (s *ManualScheduler) next(target time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	s.timers = live

	sort.Slice(s.timers, func(i, j int) bool {
		if s.timers[i].deadline != s.timers[j].deadline {
			return s.timers[i].deadline < s.timers[j].deadline
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if len(s.timers) == 0 || s.timers[0].deadline > target {
		return nil
	}
	t := s.timers[0]
	t.stopped = true
	if t.deadline > s.now {
		s.now = t.deadline
	}
	return t
}

// Pending returns the number of timers that have not run or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Now returns the scheduler's current time offset.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
