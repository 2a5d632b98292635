package dispatch

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const latencySamples = 1000

// Metrics counts dispatch outcomes and tracks execution latency.
type Metrics struct {
	keys       atomic.Uint64
	executions atomic.Uint64
	aborts     atomic.Uint64
	passes     atomic.Uint64
	timeouts   atomic.Uint64
	queued     atomic.Uint64
	consumed   atomic.Uint64
	errors     atomic.Uint64

	mu         sync.Mutex
	latencies  []time.Duration
	latencyIdx int
	peak       atomic.Int64

	startTime time.Time
	enabled   atomic.Bool
}

// NewMetrics creates an enabled metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		latencies: make([]time.Duration, latencySamples),
		startTime: time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

func (m *Metrics) add(c *atomic.Uint64) {
	if m != nil && m.enabled.Load() {
		c.Add(1)
	}
}

// recordResult counts the outcome of one processed key.
func (m *Metrics) recordResult(res Result) {
	if m == nil {
		return
	}
	m.add(&m.keys)
	switch res.State {
	case StateAborted:
		m.add(&m.aborts)
	case StatePassed:
		m.add(&m.passes)
	case StateQueued:
		m.add(&m.queued)
	case StateConsumed:
		m.add(&m.consumed)
	}
}

func (m *Metrics) recordTimeout() {
	if m != nil {
		m.add(&m.timeouts)
	}
}

func (m *Metrics) recordError() {
	if m != nil {
		m.add(&m.errors)
	}
}

// recordExecution records one binding execution and its latency.
func (m *Metrics) recordExecution(latency time.Duration) {
	if m == nil || !m.enabled.Load() {
		return
	}
	m.executions.Add(1)

	ns := latency.Nanoseconds()
	for {
		current := m.peak.Load()
		if ns <= current || m.peak.CompareAndSwap(current, ns) {
			break
		}
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % latencySamples
	m.mu.Unlock()
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	Keys       uint64
	Executions uint64
	Aborts     uint64
	Passes     uint64
	Timeouts   uint64
	Queued     uint64
	Consumed   uint64
	Errors     uint64

	AvgLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	latencies := slices.Clone(m.latencies)
	start := m.startTime
	m.mu.Unlock()

	snap := MetricsSnapshot{
		Keys:        m.keys.Load(),
		Executions:  m.executions.Load(),
		Aborts:      m.aborts.Load(),
		Passes:      m.passes.Load(),
		Timeouts:    m.timeouts.Load(),
		Queued:      m.queued.Load(),
		Consumed:    m.consumed.Load(),
		Errors:      m.errors.Load(),
		PeakLatency: time.Duration(m.peak.Load()),
		Uptime:      time.Since(start),
	}
	snap.AvgLatency, snap.P99Latency = latencyStats(latencies)
	return snap
}

// latencyStats computes the average and p99 of the recorded samples.
func latencyStats(latencies []time.Duration) (avg, p99 time.Duration) {
	valid := slices.DeleteFunc(latencies, func(l time.Duration) bool { return l <= 0 })
	if len(valid) == 0 {
		return 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
	}
	avg = sum / time.Duration(len(valid))

	slices.Sort(valid)
	idx := min(int(float64(len(valid))*0.99), len(valid)-1)
	return avg, valid[idx]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.keys, &m.executions, &m.aborts, &m.passes,
		&m.timeouts, &m.queued, &m.consumed, &m.errors,
	} {
		c.Store(0)
	}
	m.peak.Store(0)

	m.mu.Lock()
	m.latencies = make([]time.Duration, latencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}
