package term

import (
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/host"
)

// Window is the terminal host's core.Window. It is not goroutine safe; the
// host drives it from the loop goroutine.
type Window struct {
	scrollY  float64
	scroll   host.Listeners
	resize   host.Listeners
	watchers []*sizeWatcher
}

// NewWindow creates a window scrolled to the top.
func NewWindow() *Window {
	return &Window{}
}

// ScrollY returns the scroll offset in rows.
func (w *Window) ScrollY() float64 {
	return w.scrollY
}

// OnScroll registers fn for scroll changes.
func (w *Window) OnScroll(fn func()) func() {
	return w.scroll.Add(fn)
}

// OnResize registers fn for terminal resizes.
func (w *Window) OnResize(fn func()) func() {
	return w.resize.Add(fn)
}

// NewSizeWatcher returns a watcher fired by NotifySize.
func (w *Window) NewSizeWatcher(fn func()) core.SizeWatcher {
	sw := &sizeWatcher{
		window:   w,
		fn:       fn,
		observed: make(map[core.Element]struct{}),
	}
	w.watchers = append(w.watchers, sw)
	return sw
}

// SetScroll moves the viewport and fires scroll listeners if y changed.
func (w *Window) SetScroll(y float64) bool {
	if y == w.scrollY {
		return false
	}
	w.scrollY = y
	w.scroll.Fire()
	return true
}

// Resized fires resize listeners.
func (w *Window) Resized() {
	w.resize.Fire()
}

// NotifySize fires each watcher observing one of the elements, once.
func (w *Window) NotifySize(elements ...core.Element) {
	for _, sw := range append([]*sizeWatcher(nil), w.watchers...) {
		if sw.observes(elements) {
			sw.fn()
		}
	}
}

// Listeners returns the number of live scroll, resize and size listeners.
func (w *Window) Listeners() (scroll, resize, watchers int) {
	return w.scroll.Len(), w.resize.Len(), len(w.watchers)
}

type sizeWatcher struct {
	window   *Window
	fn       func()
	observed map[core.Element]struct{}
}

func (sw *sizeWatcher) Observe(el core.Element) {
	if sw.observed != nil && el != nil {
		sw.observed[el] = struct{}{}
	}
}

func (sw *sizeWatcher) Disconnect() {
	if sw.observed == nil {
		return
	}
	sw.observed = nil
	ws := sw.window.watchers
	for i, other := range ws {
		if other == sw {
			sw.window.watchers = append(ws[:i], ws[i+1:]...)
			return
		}
	}
}

func (sw *sizeWatcher) observes(elements []core.Element) bool {
	for _, el := range elements {
		if _, ok := sw.observed[el]; ok {
			return true
		}
	}
	return false
}
