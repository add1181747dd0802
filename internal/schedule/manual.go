package schedule

import "github.com/dshills/bandswap/internal/core"

// ManualFrames is a FrameSource whose frames only advance on Flush.
type ManualFrames struct {
	nextID  core.FrameID
	pending []frameRequest
}

type frameRequest struct {
	id core.FrameID
	fn func()
}

// NewManualFrames creates an idle manual frame source.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// RequestFrame queues fn for the next Flush.
func (m *ManualFrames) RequestFrame(fn func()) core.FrameID {
	m.nextID++
	m.pending = append(m.pending, frameRequest{id: m.nextID, fn: fn})
	return m.nextID
}

// CancelFrame removes a queued request.
func (m *ManualFrames) CancelFrame(id core.FrameID) {
	for i, req := range m.pending {
		if req.id == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued requests.
func (m *ManualFrames) Pending() int {
	return len(m.pending)
}

// Flush runs every request queued before the call and returns how many ran.
// Requests made while flushing wait for the next Flush.
func (m *ManualFrames) Flush() int {
	batch := m.pending
	m.pending = nil
	for _, req := range batch {
		req.fn()
	}
	return len(batch)
}
