package core

// Element is anything with a queryable viewport bounding box.
// Detached or hidden elements report a zero rect.
type Element interface {
	Bounds() Rect
}

// ClipTarget is an element whose clip region is managed by the engine.
type ClipTarget interface {
	Element
	// SetClip replaces the element's clip region.
	SetClip(clip Clip)
}

// ScrollReader reads the global vertical scroll offset.
type ScrollReader interface {
	ScrollY() float64
}

// Window is the host environment the engine observes.
// Listener registration returns a function that removes the listener;
// calling it more than once is a no-op.
type Window interface {
	ScrollReader

	// OnScroll registers a scroll listener.
	OnScroll(fn func()) (remove func())

	// OnResize registers a viewport resize listener.
	OnResize(fn func()) (remove func())

	// NewSizeWatcher creates a watcher that calls fn whenever an observed
	// element changes size.
	NewSizeWatcher(fn func()) SizeWatcher
}

// SizeWatcher observes element size changes.
type SizeWatcher interface {
	// Observe adds an element to the watched set.
	Observe(el Element)

	// Disconnect stops observing all elements. Safe to call more than once.
	Disconnect()
}

// FrameID identifies a requested frame callback.
type FrameID uint64

// FrameSource schedules callbacks to run once before the next paint.
type FrameSource interface {
	// RequestFrame schedules fn for the next frame.
	RequestFrame(fn func()) FrameID

	// CancelFrame cancels a pending request. Unknown ids are ignored.
	CancelFrame(id FrameID)
}
