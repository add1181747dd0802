package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks loop and driver activity. Safe for concurrent use.
type Metrics struct {
	// Draw timing
	drawCount   atomic.Uint64
	drawTotalNs atomic.Int64
	drawMinNs   atomic.Int64
	drawMaxNs   atomic.Int64
	lastDrawNs  atomic.Int64

	// Input handling
	inputCount   atomic.Uint64
	inputDropped atomic.Uint64

	// Active-variant changes
	changeCount atomic.Uint64

	// Page reloads
	reloadCount  atomic.Uint64
	reloadFailed atomic.Uint64

	// Lua hook
	hookCount  atomic.Uint64
	hookFailed atomic.Uint64
	hookNs     atomic.Int64

	// Recovered loop panics
	panicCount atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
	}
	// Initialize min to max int64 so the first draw will be smaller
	m.drawMinNs.Store(1<<63 - 1)
	return m
}

// RecordDraw records the time spent drawing one frame.
func (m *Metrics) RecordDraw(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.drawCount.Add(1)
	m.drawTotalNs.Add(ns)
	m.lastDrawNs.Store(ns)

	for {
		old := m.drawMinNs.Load()
		if ns >= old || m.drawMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.drawMaxNs.Load()
		if ns <= old || m.drawMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records a host event handed to the loop.
func (m *Metrics) RecordInput() {
	m.inputCount.Add(1)
}

// RecordInputDropped records an event the loop refused.
func (m *Metrics) RecordInputDropped() {
	m.inputDropped.Add(1)
}

// RecordChange records one active-variant change.
func (m *Metrics) RecordChange() {
	m.changeCount.Add(1)
}

// RecordReload records a page reload attempt.
func (m *Metrics) RecordReload(err error) {
	m.reloadCount.Add(1)
	if err != nil {
		m.reloadFailed.Add(1)
	}
}

// RecordHook records one hook call.
func (m *Metrics) RecordHook(duration time.Duration, err error) {
	m.hookCount.Add(1)
	m.hookNs.Add(duration.Nanoseconds())
	if err != nil {
		m.hookFailed.Add(1)
	}
}

// RecordPanic records a panic recovered on the loop.
func (m *Metrics) RecordPanic() {
	m.panicCount.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	drawCount := m.drawCount.Load()
	hookCount := m.hookCount.Load()

	var avgDrawNs int64
	if drawCount > 0 {
		avgDrawNs = m.drawTotalNs.Load() / int64(drawCount)
	}

	var avgHookNs int64
	if hookCount > 0 {
		avgHookNs = m.hookNs.Load() / int64(hookCount)
	}

	minDrawNs := m.drawMinNs.Load()
	if minDrawNs == 1<<63-1 {
		minDrawNs = 0
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		DrawCount:    drawCount,
		AvgDrawNs:    avgDrawNs,
		MinDrawNs:    minDrawNs,
		MaxDrawNs:    m.drawMaxNs.Load(),
		LastDrawNs:   m.lastDrawNs.Load(),
		InputCount:   m.inputCount.Load(),
		InputDropped: m.inputDropped.Load(),
		ChangeCount:  m.changeCount.Load(),
		ReloadCount:  m.reloadCount.Load(),
		ReloadFailed: m.reloadFailed.Load(),
		HookCount:    hookCount,
		HookFailed:   m.hookFailed.Load(),
		AvgHookNs:    avgHookNs,
		PanicCount:   m.panicCount.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime       time.Duration
	DrawCount    uint64
	AvgDrawNs    int64
	MinDrawNs    int64
	MaxDrawNs    int64
	LastDrawNs   int64
	InputCount   uint64
	InputDropped uint64
	ChangeCount  uint64
	ReloadCount  uint64
	ReloadFailed uint64
	HookCount    uint64
	HookFailed   uint64
	AvgHookNs    int64
	PanicCount   uint64
}

// AvgDrawMs returns the mean draw time in milliseconds.
func (s MetricsSnapshot) AvgDrawMs() float64 {
	return float64(s.AvgDrawNs) / 1e6
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
