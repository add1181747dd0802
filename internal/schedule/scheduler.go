package schedule

import "github.com/dshills/bandswap/internal/core"

// Scheduler runs a callback at most once per frame, however many times
// Schedule is called in between. It is not safe for concurrent use; drive it
// from the goroutine that delivers the frame callbacks.
type Scheduler struct {
	frames  core.FrameSource
	fn      func()
	pending bool
	id      core.FrameID
}

// New creates a scheduler that calls fn on frames from the given source.
func New(frames core.FrameSource, fn func()) *Scheduler {
	return &Scheduler{frames: frames, fn: fn}
}

// Schedule requests fn for the next frame unless a request is already pending.
// Returns true if a new frame was requested.
func (s *Scheduler) Schedule() bool {
	if s.pending {
		return false
	}
	s.pending = true
	s.id = s.frames.RequestFrame(s.tick)
	return true
}

// Cancel drops a pending request. Safe to call when nothing is pending.
func (s *Scheduler) Cancel() {
	if !s.pending {
		return
	}
	s.frames.CancelFrame(s.id)
	s.pending = false
	s.id = 0
}

// Pending returns true if a frame has been requested and not yet run.
func (s *Scheduler) Pending() bool {
	return s.pending
}

// tick clears the pending flag before running fn so that a schedule request
// made from inside fn is not lost.
func (s *Scheduler) tick() {
	s.pending = false
	s.id = 0
	if s.fn != nil {
		s.fn()
	}
}
