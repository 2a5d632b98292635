package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dshills/keyhive/internal/input/hive"
	"github.com/dshills/keyhive/internal/input/key"
	"github.com/dshills/keyhive/internal/input/mode"
)

// DefaultMaxDepth bounds nested executions.
const DefaultMaxDepth = 100

// Processor resolves key events against modes and hives.
type Processor struct {
	stack    *mode.Stack
	hives    *hive.Registry
	settings Settings
	host     Host
	sched    Scheduler
	hooks    *HookManager
	metrics  *Metrics
	logger   Logger
	onError  func(error)
	onStatus func(pending string)

	maxDepth  int
	exempt    []key.Event
	cancelKey key.Event

	site     string
	siteHive *hive.Hive

	seq   *sequence
	timer Timer
	depth int
	last  *lastExec

	feeding     int
	silent      int
	queue       []Input
	interrupted atomic.Bool

	unwatch func()
	closed  bool
}

type lastExec struct {
	binding *hive.Binding
	args    hive.Args
}

// Option configures a Processor.
type Option func(*Processor)

// WithSettings sets the policy source. The default waits one second.
func WithSettings(s Settings) Option {
	return func(p *Processor) { p.settings = s }
}

// WithHost sets where unmapped keys go.
func WithHost(h Host) Option {
	return func(p *Processor) { p.host = h }
}

// WithScheduler sets the timer source. Without it the processor uses a
// ManualScheduler, available through Scheduler.
func WithScheduler(s Scheduler) Option {
	return func(p *Processor) { p.sched = s }
}

// WithHooks shares a hook manager.
func WithHooks(h *HookManager) Option {
	return func(p *Processor) { p.hooks = h }
}

// WithMetrics shares a metrics tracker.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithErrorHandler sets a callback for execution errors and reported
// unknown sequences.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Processor) { p.onError = fn }
}

// WithStatus sets a callback that receives the pending keys whenever they
// change. An empty string means nothing is pending.
func WithStatus(fn func(pending string)) Option {
	return func(p *Processor) { p.onStatus = fn }
}

// WithMaxDepth bounds nested executions.
func WithMaxDepth(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithPassThroughExempt sets the keys that are still resolved while a
// pass-through mode is on top. Invalid keys are ignored.
func WithPassThroughExempt(keys ...string) Option {
	return func(p *Processor) { p.exempt = parseAll(keys) }
}

// WithCancelKey sets the key that interrupts a feed.
func WithCancelKey(k string) Option {
	return func(p *Processor) {
		if ev, err := key.Parse(k); err == nil {
			p.cancelKey = ev
		}
	}
}

// New creates a processor over stack and hives.
func New(stack *mode.Stack, hives *hive.Registry, opts ...Option) *Processor {
	p := &Processor{
		stack:     stack,
		hives:     hives,
		settings:  DefaultSettings(),
		host:      nopHost{},
		hooks:     NewHookManager(),
		metrics:   NewMetrics(),
		logger:    nopLogger{},
		maxDepth:  DefaultMaxDepth,
		exempt:    parseAll([]string{"<Esc>", "<C-v>"}),
		cancelKey: key.NewRuneEvent('c', key.ModCtrl),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sched == nil {
		p.sched = NewManualScheduler()
	}
	p.unwatch = stack.OnChange(p.onModeChange)
	return p
}

func parseAll(keys []string) []key.Event {
	var out []key.Event
	for _, k := range keys {
		if ev, err := key.Parse(k); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

// Stack returns the mode stack.
func (p *Processor) Stack() *mode.Stack { return p.stack }

// Hives returns the hive registry.
func (p *Processor) Hives() *hive.Registry { return p.hives }

// Hooks returns the hook manager.
func (p *Processor) Hooks() *HookManager { return p.hooks }

// Metrics returns the metrics tracker.
func (p *Processor) Metrics() *Metrics { return p.metrics }

// Scheduler returns the timer source.
func (p *Processor) Scheduler() Scheduler { return p.sched }

// Pending returns the keys of the sequence in progress.
func (p *Processor) Pending() string {
	if p.seq == nil {
		return ""
	}
	return p.seq.keys()
}

// Feeding reports whether FeedKeys is running.
func (p *Processor) Feeding() bool { return p.feeding > 0 }

// Interrupt stops the running feed before its next key. It is safe to call
// from any goroutine.
func (p *Processor) Interrupt() {
	p.interrupted.Store(true)
}

// Site returns the current site.
func (p *Processor) Site() string { return p.site }

// SetSite switches the site and rebuilds its pass keys. Pass keys go to the
// host unmapped in every mode that is not insert-style.
func (p *Processor) SetSite(site string) error {
	p.site = site
	p.siteHive = nil

	keys := p.settings.PassKeys(site)
	if len(keys) == 0 {
		return nil
	}
	base := p.stack.Registry().Get(mode.ModeBase)
	if base == nil {
		return fmt.Errorf("%w: %s", mode.ErrUnknownMode, mode.ModeBase)
	}

	h := hive.New("passkeys", p.stack.Registry(), hive.WithDescription("Pass keys for "+site))
	var errs []error
	for _, k := range keys {
		_, err := h.Add([]*mode.Mode{base}, []string{k}, "Pass through", passAction, hive.WithFlags(hive.FlagPassThrough))
		if err != nil {
			errs = append(errs, err)
		}
	}
	p.siteHive = h
	return errors.Join(errs...)
}

func passAction(*hive.Args) error { return nil }

// ProcessKey handles one key event.
func (p *Processor) ProcessKey(in Input) Result {
	if p.closed {
		return Result{State: StateAborted, Err: ErrProcessorClosed}
	}

	var res Result
	switch {
	case p.feeding > 0 && !in.fed:
		res = p.intercept(in)
	case p.hooks.RunPreKey(&in):
		res = Result{State: StateConsumed, Keys: in.Event.String()}
	default:
		res = p.process(in)
		p.hooks.RunPostKey(in, res)
	}
	p.metrics.recordResult(res)
	return res
}

// intercept handles a typed key that arrives while a feed runs.
func (p *Processor) intercept(in Input) Result {
	if in.Event.Equals(p.cancelKey) {
		p.Interrupt()
		return Result{State: StateAborted, Keys: in.Event.String(), Err: ErrInterrupted}
	}
	p.queue = append(p.queue, in)
	return Result{State: StateQueued, Keys: in.Event.String()}
}

func (p *Processor) process(in Input) Result {
	ev := in.Event

	if p.seq != nil {
		p.stopTimer()
		if p.seq.frame != p.stack.Top() {
			p.finish(p.seq)
		}
	}

	if in.SkipMap {
		// Keys skipping the mappings cannot extend a pending sequence.
		if p.seq != nil {
			p.settle(p.seq)
		}
		p.host.PassKey(ev)
		return Result{State: StatePassed, Keys: ev.String()}
	}

	if p.seq == nil {
		top := p.stack.Main()
		switch {
		case top.Has(mode.FlagOneShot):
			if err := p.stack.Pop(nil, nil); err != nil {
				p.report(err)
			}
			// Quoting inside pass-through resolves the key instead.
			if !p.stack.Main().Has(mode.FlagPassThrough) {
				p.host.PassKey(ev)
				return Result{State: StatePassed, Keys: ev.String()}
			}
		case top.Has(mode.FlagPassThrough) && !p.isExempt(ev):
			p.host.PassKey(ev)
			return Result{State: StatePassed, Keys: ev.String()}
		}
		p.seq = p.begin(in)
	}
	return p.advance(p.seq, in)
}

func (p *Processor) isExempt(ev key.Event) bool {
	return slices.ContainsFunc(p.exempt, ev.Equals)
}

// begin captures the modes and hives for a new sequence.
func (p *Processor) begin(in Input) *sequence {
	top := p.stack.Top()
	s := &sequence{
		frame:  top,
		main:   top.Main,
		modes:  p.stack.ActiveModes(),
		counts: top.Main.AcceptsCount() && !top.Main.Has(mode.FlagInsert),
	}
	if in.NoRemap {
		for _, h := range p.hives.Hives() {
			if h.Builtin() {
				s.hives = append(s.hives, h)
			}
		}
		return s
	}
	s.hives = p.hives.Active(p.site)
	if !top.Main.Has(mode.FlagInsert) {
		s.site = p.siteHive
	}
	return s
}

// advance feeds one input to s and decides what happens next.
func (p *Processor) advance(s *sequence, in Input) Result {
	s.inputs = append(s.inputs, in)
	ev := in.Event

	if s.arg != nil {
		return p.advanceArg(s, ev)
	}

	if s.counts && len(s.command) == 0 && countDigit(ev, s.count) {
		s.count += string(ev.Rune)
		p.status(s)
		return Result{State: StateAccumulating, Keys: s.keys(), Count: parseCount(s.count)}
	}

	s.command = append(s.command, ev)
	name := key.Stringify(s.command)
	m := s.resolve(name)

	switch {
	case m.Binding == nil && m.Candidates == 0:
		if s.best != nil {
			return p.commit(s, s.best, s.bestName, s.bestLen)
		}
		return p.abort(s)
	case m.Binding != nil && m.Hard == 0:
		return p.commit(s, m.Binding, name, len(s.inputs))
	}

	if m.Binding != nil {
		s.best, s.bestName, s.bestLen = m.Binding, name, len(s.inputs)
	}

	wait, timeout := p.settings.WaitPolicy()
	switch {
	case wait && timeout > 0:
		p.startTimer(s, timeout)
		p.status(s)
		return Result{State: StateWaiting, Keys: s.keys()}
	case wait:
		// A zero timeout never waits.
		if s.best != nil {
			return p.commit(s, s.best, s.bestName, s.bestLen)
		}
		return p.abort(s)
	case m.Binding != nil:
		return p.commit(s, m.Binding, name, len(s.inputs))
	default:
		p.status(s)
		return Result{State: StateAccumulating, Keys: s.keys()}
	}
}

// advanceArg feeds a key to a binding waiting for its argument or motion.
func (p *Processor) advanceArg(s *sequence, ev key.Event) Result {
	a := s.arg
	if ev.IsEscape() {
		p.finish(s)
		return Result{State: StateAborted, Keys: s.keys()}
	}
	if a.motion && countDigit(ev, a.count) {
		a.count += string(ev.Rune)
		p.status(s)
		return Result{State: StateAccumulating, Keys: s.keys()}
	}

	p.finish(s)
	args := &hive.Args{
		Keys:   a.name,
		Count:  parseCount(s.count),
		Events: s.events(),
		Macro:  s.macro(),
	}
	if a.motion {
		args.Motion = ev.String()
		args.MotionCount = parseCount(a.count)
		if args.MotionCount > 0 {
			args.Count = args.MotionCount
		}
	} else {
		args.Arg = ev.String()
	}
	return p.execute(a.binding, args)
}

// commit acts on b, which matched the first n inputs of s. Inputs past n
// are fed again afterwards.
func (p *Processor) commit(s *sequence, b *hive.Binding, name string, n int) Result {
	rest := slices.Clone(s.inputs[n:])
	s.inputs = s.inputs[:n]

	if b.Has(hive.FlagPassThrough) {
		p.finish(s)
		for _, in := range s.inputs {
			p.host.PassKey(in.Event)
		}
		p.refeed(rest)
		return Result{State: StatePassed, Binding: b, Keys: name}
	}

	if b.WantsArg() || b.Has(hive.FlagMotion) {
		p.stopTimer()
		s.arg = &pendingArg{binding: b, name: name, motion: b.Has(hive.FlagMotion)}
		s.best = nil
		p.status(s)
		res := Result{State: StateAccumulating, Keys: s.keys()}
		for i, in := range rest {
			res = p.advance(s, in)
			if p.seq != s {
				p.refeed(rest[i+1:])
				break
			}
		}
		return res
	}

	p.finish(s)
	res := p.execute(b, &hive.Args{
		Keys:   name,
		Count:  parseCount(s.count),
		Events: s.events(),
		Macro:  s.macro(),
	})
	p.refeed(rest)
	return res
}

// execute runs b. The sequence has already been detached.
func (p *Processor) execute(b *hive.Binding, args *hive.Args) Result {
	res := Result{State: StateExecuted, Binding: b, Keys: args.Keys, Count: args.Count}
	if p.depth >= p.maxDepth {
		p.Interrupt()
		res.State = StateAborted
		res.Err = p.fail(b, args, ErrMaxDepth)
		return res
	}

	p.depth++
	defer func() { p.depth-- }()

	p.hooks.RunPreExecute(args)
	start := time.Now()
	err := b.Execute(args)
	p.metrics.recordExecution(time.Since(start))
	p.hooks.RunPostExecute(args, err)

	if err != nil {
		res.State = StateAborted
		res.Err = p.fail(b, args, err)
		return res
	}
	if !b.Has(hive.FlagNoRepeat) {
		p.last = &lastExec{binding: b, args: *args}
	}
	p.logger.Debug("executed %s count=%d", args.Keys, args.Count)
	return res
}

func (p *Processor) fail(b *hive.Binding, args *hive.Args, err error) error {
	e := &ExecError{Keys: args.Keys, Binding: b, Err: err}
	p.report(e)
	return e
}

func (p *Processor) report(err error) {
	p.metrics.recordError()
	p.logger.Error("%v", err)
	if p.onError != nil {
		p.onError(err)
	}
}

// abort ends s without executing anything.
func (p *Processor) abort(s *sequence) Result {
	p.finish(s)
	res := Result{State: StateAborted, Keys: s.keys()}
	events := s.events()

	if p.passUnknown(s) {
		for _, ev := range events {
			p.host.PassKey(ev)
		}
		res.State = StatePassed
		return res
	}

	if !events[len(events)-1].IsEscape() {
		p.host.Beep()
		if p.settings.ReportUnknown() {
			res.Err = fmt.Errorf("%w: %s", ErrUnknownKeys, res.Keys)
			p.report(res.Err)
		}
	}
	// An unknown key stops the feed it came from.
	if p.feeding > 0 && slices.ContainsFunc(s.inputs, func(in Input) bool { return in.fed }) {
		p.Interrupt()
	}
	p.logger.Debug("aborted %s", res.Keys)
	return res
}

func (p *Processor) passUnknown(s *sequence) bool {
	if s.main.Has(mode.FlagInsert) {
		return true
	}
	for _, m := range s.modes {
		if p.settings.PassUnknown(m.Name()) {
			return true
		}
	}
	return false
}

// refeed runs inputs left over after a match through dispatch again.
func (p *Processor) refeed(inputs []Input) {
	for _, in := range inputs {
		p.process(in)
	}
}

func (p *Processor) startTimer(s *sequence, d time.Duration) {
	p.stopTimer()
	p.timer = p.sched.AfterFunc(d, func() { p.expire(s) })
}

func (p *Processor) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// expire runs when s waited too long. The best match executes, otherwise
// the sequence aborts.
func (p *Processor) expire(s *sequence) {
	if p.closed || p.seq != s {
		return
	}
	p.timer = nil
	p.metrics.recordTimeout()

	res := p.settle(s)
	p.logger.Debug("timeout %s -> %s", res.Keys, res.State)
}

// settle ends s without waiting for more keys: the best match executes,
// otherwise the sequence aborts.
func (p *Processor) settle(s *sequence) Result {
	if s.best != nil {
		return p.commit(s, s.best, s.bestName, s.bestLen)
	}
	return p.abort(s)
}

// finish detaches s if it is the current sequence.
func (p *Processor) finish(s *sequence) {
	if p.seq == s {
		p.seq = nil
		p.stopTimer()
	}
	p.status(nil)
}

// Cancel drops the sequence in progress without executing anything.
func (p *Processor) Cancel() {
	if p.seq != nil {
		p.finish(p.seq)
	}
}

func (p *Processor) onModeChange(c mode.Change) {
	if c.Kind == mode.Popped && p.seq != nil && c.Frame == p.seq.frame {
		p.finish(p.seq)
	}
}

func (p *Processor) status(s *sequence) {
	if p.onStatus == nil || p.silent > 0 {
		return
	}
	if s == nil {
		p.onStatus("")
		return
	}
	p.onStatus(s.keys())
}

// RepeatLast executes the last repeatable binding again. A positive count
// replaces the original count.
func (p *Processor) RepeatLast(count int) error {
	if p.last == nil {
		return ErrNothingToRepeat
	}
	args := p.last.args
	if count > 0 {
		args.Count = count
	}
	return p.execute(p.last.binding, &args).Err
}

// Close cancels pending work and detaches from the mode stack.
func (p *Processor) Close() {
	if p.closed {
		return
	}
	p.Cancel()
	if p.unwatch != nil {
		p.unwatch()
	}
	p.closed = true
}
