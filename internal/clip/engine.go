package clip

import (
	"github.com/google/uuid"

	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/schedule"
	"github.com/dshills/bandswap/internal/section"
)

// State is the engine lifecycle state.
type State uint8

const (
	// StateStopped is the state before start.
	StateStopped State = iota
	// StateRunning means listeners are registered and recomputes are scheduled.
	StateRunning
	// StateDestroyed is terminal.
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Config configures an Engine.
type Config struct {
	// Band is the fixed element whose content is swapped.
	Band core.Element

	// Window supplies scroll offset, scroll/resize events and size watchers.
	Window core.Window

	// Frames schedules recomputes.
	Frames core.FrameSource

	// Targets are the variant elements. Exactly one must be the default.
	Targets []Target

	// Sections are the tracked page regions.
	Sections []*section.Section

	// OnChange is called with the active variants whenever they change.
	OnChange func(active []core.ActiveVariant)

	// Logger receives lifecycle and debug output. Defaults to a null logger.
	Logger *logging.Logger
}

// Stats counts engine activity.
type Stats struct {
	Recomputes    uint64 // Completed recomputes
	Skipped       uint64 // Recomputes aborted on a zero-height band
	Notifications uint64 // OnChange calls
	Remeasures    uint64 // Section refresh passes
}

// Engine recomputes variant clips as the page scrolls.
type Engine struct {
	id       string
	band     core.Element
	window   core.Window
	frames   core.FrameSource
	onChange func([]core.ActiveVariant)
	logger   *logging.Logger

	targets  []Target
	sections []*section.Section

	sched        *schedule.Scheduler
	watcher      core.SizeWatcher
	removeScroll func()
	removeResize func()

	signature string
	active    []core.ActiveVariant
	state     State
	stats     Stats
}

// New validates cfg, creates an engine and starts it. The first recompute
// runs before New returns.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Band == nil:
		return nil, ErrNoBand
	case cfg.Window == nil:
		return nil, ErrNoWindow
	case cfg.Frames == nil:
		return nil, ErrNoFrames
	}
	if err := ValidateTargets(cfg.Targets); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Null()
	}

	e := &Engine{
		id:       uuid.NewString(),
		band:     cfg.Band,
		window:   cfg.Window,
		frames:   cfg.Frames,
		onChange: cfg.OnChange,
		targets:  cloneTargets(cfg.Targets),
		sections: cloneSections(cfg.Sections),
	}
	e.logger = logger.WithComponent("clip").WithField("engine", e.id[:8])
	e.sched = schedule.New(cfg.Frames, e.recompute)

	if err := e.Start(); err != nil {
		return nil, err
	}
	return e, nil
}

// ID returns the engine's instance id.
func (e *Engine) ID() string {
	return e.id
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Start registers listeners and runs an immediate recompute. Calling Start on
// a running engine is a no-op; a destroyed engine cannot be restarted.
func (e *Engine) Start() error {
	switch e.state {
	case StateRunning:
		return nil
	case StateDestroyed:
		return ErrDestroyed
	}

	e.removeScroll = e.window.OnScroll(e.onScroll)
	e.removeResize = e.window.OnResize(e.onResize)
	e.observe()
	e.state = StateRunning

	e.refresh()
	e.recompute()

	e.logger.Info("started with %d targets, %d sections", len(e.targets), len(e.sections))
	return nil
}

// Update swaps the tracked targets and sections, re-measures, re-establishes
// size watchers and schedules a recompute.
func (e *Engine) Update(targets []Target, sections []*section.Section) error {
	if e.state == StateDestroyed {
		return ErrDestroyed
	}
	if err := ValidateTargets(targets); err != nil {
		return err
	}

	e.targets = cloneTargets(targets)
	e.sections = cloneSections(sections)
	e.refresh()
	e.observe()
	e.sched.Schedule()

	e.logger.Debug("updated to %d targets, %d sections", len(e.targets), len(e.sections))
	return nil
}

// Recalculate re-measures the current sections and schedules a recompute.
// Use it after layout changes the engine cannot observe.
func (e *Engine) Recalculate() error {
	if e.state == StateDestroyed {
		return ErrDestroyed
	}
	e.refresh()
	e.sched.Schedule()
	return nil
}

// Destroy cancels any pending recompute and removes every listener and
// watcher. Safe to call more than once.
func (e *Engine) Destroy() {
	if e.state == StateDestroyed {
		return
	}

	e.sched.Cancel()
	if e.removeScroll != nil {
		e.removeScroll()
		e.removeScroll = nil
	}
	if e.removeResize != nil {
		e.removeResize()
		e.removeResize = nil
	}
	if e.watcher != nil {
		e.watcher.Disconnect()
		e.watcher = nil
	}
	e.state = StateDestroyed

	e.logger.Info("destroyed after %d recomputes", e.stats.Recomputes)
}

// Active returns a copy of the last notified active variants.
func (e *Engine) Active() []core.ActiveVariant {
	return core.CloneActive(e.active)
}

// Pending returns true if a recompute is scheduled.
func (e *Engine) Pending() bool {
	return e.sched.Pending()
}

// Stats returns activity counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) onScroll() {
	e.sched.Schedule()
}

func (e *Engine) onResize() {
	e.refresh()
	e.sched.Schedule()
}

// observe replaces the size watcher with one covering the current sections
// and the band. The old watcher is disconnected first.
func (e *Engine) observe() {
	if e.watcher != nil {
		e.watcher.Disconnect()
	}
	e.watcher = e.window.NewSizeWatcher(e.onResize)
	for _, s := range e.sections {
		if s != nil && s.Element != nil {
			e.watcher.Observe(s.Element)
		}
	}
	e.watcher.Observe(e.band)
}

func (e *Engine) refresh() {
	section.RefreshAll(e.sections, e.window)
	e.stats.Remeasures++
}

// recompute runs the algorithm against live geometry, writes clips and
// notifies when the active set changed.
func (e *Engine) recompute() {
	if e.state != StateRunning {
		return
	}

	res, ok := Compute(Frame{
		Band:     e.band.Bounds(),
		ScrollY:  e.window.ScrollY(),
		Sections: e.sections,
		Targets:  e.targets,
	})
	if !ok {
		e.stats.Skipped++
		e.logger.Debug("band has no height, recompute skipped")
		return
	}
	e.stats.Recomputes++

	for i, t := range e.targets {
		t.Element.SetClip(res.Clips[i])
	}

	sig := core.Signature(res.Active)
	if sig == e.signature {
		return
	}
	e.signature = sig
	e.active = res.Active
	e.stats.Notifications++
	e.logger.Debug("active variants changed: %s", sig)

	if e.onChange != nil {
		e.onChange(core.CloneActive(res.Active))
	}
}

func cloneTargets(targets []Target) []Target {
	out := make([]Target, len(targets))
	copy(out, targets)
	return out
}

func cloneSections(sections []*section.Section) []*section.Section {
	out := make([]*section.Section, len(sections))
	copy(out, sections)
	return out
}
