package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/host"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/section"
)

// Markup attributes.
const (
	AttrBand     = "data-bandswap-band"
	AttrVariant  = "data-bandswap-variant"
	AttrDefault  = "data-bandswap-default"
	AttrGeometry = "data-bandswap-geometry"
	AttrSection  = "data-bandswap-section"
)

// ErrNoBandElement means the page has no element marked as the band.
var ErrNoBandElement = errors.New("browser: no element with " + AttrBand)

// Host is the browser core.Window. Bridged events are posted to the loop
// so every listener runs on the loop goroutine.
type Host struct {
	page   *rod.Page
	post   func(func()) bool
	logger *logging.Logger

	scroll   host.Listeners
	resize   host.Listeners
	document host.Listeners
	watchers map[int]*sizeWatcher
	nextID   int
}

// NewHost installs the bridge on page. post queues work on the loop.
func NewHost(page *rod.Page, post func(func()) bool, logger *logging.Logger) (*Host, error) {
	if logger == nil {
		logger = logging.Null()
	}
	h := &Host{
		page:     page,
		post:     post,
		logger:   logger.WithComponent("browser"),
		watchers: make(map[int]*sizeWatcher),
	}

	if err := (proto.RuntimeAddBinding{Name: BindingName}).Call(page); err != nil {
		return nil, fmt.Errorf("browser: add binding: %w", err)
	}
	if _, err := page.EvalOnNewDocument("(" + bootstrapJS + ")(true)"); err != nil {
		return nil, fmt.Errorf("browser: register bootstrap: %w", err)
	}
	if _, err := page.Eval(bootstrapJS); err != nil {
		return nil, fmt.Errorf("browser: bootstrap: %w", err)
	}
	return h, nil
}

// Listen forwards binding calls to the loop until ctx is done.
func (h *Host) Listen(ctx context.Context) error {
	wait := h.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != BindingName {
			return
		}
		ev, err := parseEvent(e.Payload)
		if err != nil {
			h.logger.Warn("%v", err)
			return
		}
		h.post(func() { h.dispatch(ev) })
	})
	wait()
	return nil
}

func (h *Host) dispatch(ev Event) {
	switch ev.Type {
	case EventScroll:
		h.scroll.Fire()
	case EventResize:
		h.resize.Fire()
	case EventSize:
		if sw, ok := h.watchers[ev.Watcher]; ok {
			sw.fn()
		}
	case EventDocument:
		h.logger.Debug("new document")
		h.document.Fire()
	}
}

// ScrollY reads window.scrollY. Errors read as 0.
func (h *Host) ScrollY() float64 {
	res, err := h.page.Eval(`() => window.scrollY`)
	if err != nil {
		h.logger.Debug("scrollY: %v", err)
		return 0
	}
	return res.Value.Num()
}

// OnScroll registers fn for page scrolls.
func (h *Host) OnScroll(fn func()) func() {
	return h.scroll.Add(fn)
}

// OnResize registers fn for viewport resizes.
func (h *Host) OnResize(fn func()) func() {
	return h.resize.Add(fn)
}

// OnDocument registers fn for documents loaded after NewHost, such as
// after a navigation. Elements from an earlier Scan are stale by then.
func (h *Host) OnDocument(fn func()) func() {
	return h.document.Add(fn)
}

// NewSizeWatcher creates a ResizeObserver-backed watcher.
func (h *Host) NewSizeWatcher(fn func()) core.SizeWatcher {
	h.nextID++
	sw := &sizeWatcher{host: h, id: h.nextID, fn: fn}
	h.watchers[sw.id] = sw
	return sw
}

// Scan discovers the band, variant targets and sections by attribute.
func (h *Host) Scan() (core.Element, []clip.Target, []*section.Section, error) {
	bands, err := h.page.Elements("[" + AttrBand + "]")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("browser: scan band: %w", err)
	}
	if len(bands) == 0 {
		return nil, nil, nil, ErrNoBandElement
	}
	band := newNode(bands.First(), h.logger)

	els, err := h.page.Elements("[" + AttrVariant + "]")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("browser: scan variants: %w", err)
	}
	targets := make([]clip.Target, 0, len(els))
	for _, el := range els {
		name, _ := el.Attribute(AttrVariant)
		def, _ := el.Attribute(AttrDefault)
		geometry, _ := el.Attribute(AttrGeometry)
		t, err := targetFromAttrs(name, def, geometry)
		if err != nil {
			return nil, nil, nil, err
		}
		t.Element = newNode(el, h.logger)
		targets = append(targets, t)
	}

	els, err = h.page.Elements("[" + AttrSection + "]")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("browser: scan sections: %w", err)
	}
	sections := make([]*section.Section, 0, len(els))
	for _, el := range els {
		variant, _ := el.Attribute(AttrSection)
		if variant == nil || *variant == "" {
			continue
		}
		sections = append(sections, section.New(newNode(el, h.logger), *variant))
	}

	h.logger.Info("scanned %d targets, %d sections", len(targets), len(sections))
	return band, targets, sections, nil
}

// targetFromAttrs builds a target from its attribute values. A nil
// pointer is an absent attribute.
func targetFromAttrs(name, def, geometry *string) (clip.Target, error) {
	if name == nil || *name == "" {
		return clip.Target{}, fmt.Errorf("browser: %s without a name", AttrVariant)
	}
	t := clip.Target{Name: *name, Default: def != nil}
	if geometry != nil {
		mode, err := clip.ParseGeometryMode(*geometry)
		if err != nil {
			return clip.Target{}, fmt.Errorf("browser: variant %q: %w", *name, err)
		}
		t.Geometry = mode
	}
	return t, nil
}

type sizeWatcher struct {
	host *Host
	id   int
	fn   func()
	done bool
}

func (sw *sizeWatcher) Observe(el core.Element) {
	n, ok := el.(*Node)
	if !ok || sw.done {
		return
	}
	if _, err := n.el.Eval(`(id) => window.__bandswapWatch(id, this)`, sw.id); err != nil {
		sw.host.logger.Debug("observe: %v", err)
	}
}

func (sw *sizeWatcher) Disconnect() {
	if sw.done {
		return
	}
	sw.done = true
	delete(sw.host.watchers, sw.id)
	if _, err := sw.host.page.Eval(`(id) => window.__bandswapUnwatch(id)`, sw.id); err != nil {
		sw.host.logger.Debug("unwatch: %v", err)
	}
}
