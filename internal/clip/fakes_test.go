package clip

import (
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/section"
)

// fakeWindow is an in-memory window with manually fired events.
type fakeWindow struct {
	scrollY  float64
	nextID   int
	scroll   map[int]func()
	resize   map[int]func()
	watchers []*fakeWatcher
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		scroll: make(map[int]func()),
		resize: make(map[int]func()),
	}
}

func (w *fakeWindow) ScrollY() float64 { return w.scrollY }

func (w *fakeWindow) OnScroll(fn func()) func() {
	w.nextID++
	id := w.nextID
	w.scroll[id] = fn
	return func() { delete(w.scroll, id) }
}

func (w *fakeWindow) OnResize(fn func()) func() {
	w.nextID++
	id := w.nextID
	w.resize[id] = fn
	return func() { delete(w.resize, id) }
}

func (w *fakeWindow) NewSizeWatcher(fn func()) core.SizeWatcher {
	sw := &fakeWatcher{fn: fn}
	w.watchers = append(w.watchers, sw)
	return sw
}

func (w *fakeWindow) scrollTo(y float64) {
	w.scrollY = y
	for _, fn := range w.scroll {
		fn()
	}
}

func (w *fakeWindow) fireResize() {
	for _, fn := range w.resize {
		fn()
	}
}

// liveWatchers returns the watchers not yet disconnected.
func (w *fakeWindow) liveWatchers() []*fakeWatcher {
	var live []*fakeWatcher
	for _, sw := range w.watchers {
		if !sw.disconnected {
			live = append(live, sw)
		}
	}
	return live
}

type fakeWatcher struct {
	fn           func()
	observed     []core.Element
	disconnected bool
}

func (sw *fakeWatcher) Observe(el core.Element) { sw.observed = append(sw.observed, el) }
func (sw *fakeWatcher) Disconnect()             { sw.disconnected = true }

func (sw *fakeWatcher) fire() {
	if !sw.disconnected {
		sw.fn()
	}
}

// fixedElement reports a fixed viewport rect, like a sticky band.
type fixedElement struct {
	rect   core.Rect
	clip   core.Clip
	writes int
}

func (e *fixedElement) Bounds() core.Rect { return e.rect }

func (e *fixedElement) SetClip(c core.Clip) {
	e.clip = c
	e.writes++
}

// pageElement sits at a document offset and moves with the scroll.
type pageElement struct {
	win    *fakeWindow
	top    float64
	height float64
}

func (e *pageElement) Bounds() core.Rect {
	return core.NewRect(e.top-e.win.scrollY, e.height)
}

type fixture struct {
	win      *fakeWindow
	frames   *manualFrames
	band     *fixedElement
	targets  map[string]*fixedElement
	order    []Target
	sections []*section.Section
	changes  [][]core.ActiveVariant
}

func newFixture(variants ...string) *fixture {
	f := &fixture{
		win:     newFakeWindow(),
		frames:  newManualFrames(),
		band:    &fixedElement{rect: core.NewRect(0, 60)},
		targets: make(map[string]*fixedElement),
	}
	f.addTarget("default", true)
	for _, v := range variants {
		f.addTarget(v, false)
	}
	return f
}

func (f *fixture) addTarget(name string, def bool) {
	el := &fixedElement{rect: f.band.rect}
	f.targets[name] = el
	f.order = append(f.order, Target{Name: name, Element: el, Default: def})
}

// addSection adds a section whose viewport top is given at the current scroll.
func (f *fixture) addSection(variant string, viewTop, height float64) *pageElement {
	el := &pageElement{win: f.win, top: viewTop + f.win.scrollY, height: height}
	f.sections = append(f.sections, section.New(el, variant))
	return el
}

func (f *fixture) config() Config {
	return Config{
		Band:     f.band,
		Window:   f.win,
		Frames:   f.frames,
		Targets:  f.order,
		Sections: f.sections,
		OnChange: func(active []core.ActiveVariant) {
			f.changes = append(f.changes, active)
		},
	}
}

func (f *fixture) clip(name string) core.Clip {
	return f.targets[name].clip
}

// manualFrames mirrors schedule.ManualFrames so the tests can also count cancels.
type manualFrames struct {
	nextID    core.FrameID
	pending   map[core.FrameID]func()
	order     []core.FrameID
	cancelled int
}

func newManualFrames() *manualFrames {
	return &manualFrames{pending: make(map[core.FrameID]func())}
}

func (m *manualFrames) RequestFrame(fn func()) core.FrameID {
	m.nextID++
	m.pending[m.nextID] = fn
	m.order = append(m.order, m.nextID)
	return m.nextID
}

func (m *manualFrames) CancelFrame(id core.FrameID) {
	if _, ok := m.pending[id]; ok {
		delete(m.pending, id)
		m.cancelled++
	}
}

func (m *manualFrames) flush() int {
	order := m.order
	m.order = nil
	n := 0
	for _, id := range order {
		fn, ok := m.pending[id]
		if !ok {
			continue
		}
		delete(m.pending, id)
		fn()
		n++
	}
	return n
}
