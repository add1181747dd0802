// Package term is the terminal host: it lays a page out in rows, scrolls it
// under a fixed band and paints each band row from the variant layer whose
// clip reveals it.
package term

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/page"
	"github.com/dshills/bandswap/internal/section"
)

// Host owns the backend, the window and the page elements. All methods
// must be called from the loop goroutine.
type Host struct {
	backend Backend
	logger  *logging.Logger
	win     *Window

	page    *page.Page
	palette Palette
	band    *bandElement
	layers  []*Layer
	blocks  []*Block

	active []core.ActiveVariant
	status string

	scrollStep int
	statusLine bool
	onReload   func()

	width, height int
	dirty         bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithScrollStep sets the rows moved per arrow key.
func WithScrollStep(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.scrollStep = n
		}
	}
}

// WithStatusLine toggles the bottom status row.
func WithStatusLine(on bool) Option {
	return func(h *Host) {
		h.statusLine = on
	}
}

// WithReload sets the handler for the reload key.
func WithReload(fn func()) Option {
	return func(h *Host) {
		h.onReload = fn
	}
}

// New creates a host over an initialized backend.
func New(b Backend, opts ...Option) *Host {
	h := &Host{
		backend:    b,
		logger:     logging.Null(),
		win:        NewWindow(),
		scrollStep: 1,
		statusLine: true,
		dirty:      true,
	}
	h.band = &bandElement{host: h}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.WithComponent("term")
	h.width, h.height = b.Size()
	return h
}

// Window returns the host window.
func (h *Host) Window() *Window {
	return h.win
}

// Band returns the band element.
func (h *Host) Band() core.Element {
	return h.band
}

// Layers returns the variant layers of the loaded page.
func (h *Host) Layers() []*Layer {
	return h.layers
}

// Page returns the loaded page.
func (h *Host) Page() *page.Page {
	return h.page
}

// Load lays out p and returns the engine targets and tracked sections for
// it. Spacer sections are drawn but not tracked. Reloading a page whose
// band height changed notifies size watchers observing the band.
//
// Targets that the engine would reject leave the current page in place.
func (h *Host) Load(p *page.Page) ([]clip.Target, []*section.Section, error) {
	layers := make([]*Layer, 0, len(p.Variants))
	targets := make([]clip.Target, 0, len(p.Variants))
	for _, v := range p.Variants {
		l := &Layer{host: h, variant: v, clip: core.HiddenClip()}
		layers = append(layers, l)

		geometry := clip.GeometryBand
		if v.Own {
			geometry = clip.GeometryOwn
		}
		targets = append(targets, clip.Target{
			Name:     v.Name,
			Element:  l,
			Default:  v.Default,
			Geometry: geometry,
		})
	}
	if err := clip.ValidateTargets(targets); err != nil {
		return nil, nil, err
	}

	prevBand := h.bandHeight()
	h.page = p
	h.palette = NewPalette(p)
	h.layers = layers

	layout := p.Layout()
	h.blocks = make([]*Block, 0, len(layout))
	var sections []*section.Section
	for _, pl := range layout {
		b := &Block{host: h, placement: pl}
		h.blocks = append(h.blocks, b)
		if pl.Tracked() {
			sections = append(sections, section.New(b, pl.Variant))
		}
	}

	h.clampScroll()
	h.dirty = true
	h.logger.Debug("loaded page: %d variants, %d sections, %d rows", len(p.Variants), len(sections), p.Height())

	if prevBand != 0 && prevBand != h.bandHeight() {
		h.win.NotifySize(h.band)
	}
	return targets, sections, nil
}

// ViewportHeight returns the rows available to the document.
func (h *Host) ViewportHeight() int {
	if h.statusLine {
		return max(0, h.height-1)
	}
	return h.height
}

// MaxScroll returns the largest valid scroll offset.
func (h *Host) MaxScroll() float64 {
	if h.page == nil {
		return 0
	}
	return float64(h.page.MaxScroll(h.ViewportHeight()))
}

// ScrollTo moves the viewport, clamped to the document.
func (h *Host) ScrollTo(y float64) {
	y = math.Max(0, math.Min(y, h.MaxScroll()))
	if h.win.SetScroll(y) {
		h.dirty = true
	}
}

// ScrollBy moves the viewport by dy rows.
func (h *Host) ScrollBy(dy float64) {
	h.ScrollTo(h.win.ScrollY() + dy)
}

// SetActive records the active variants for the status line.
func (h *Host) SetActive(active []core.ActiveVariant) {
	h.active = core.CloneActive(active)
	h.dirty = true
}

// SetStatus sets the free text shown at the right of the status line.
func (h *Host) SetStatus(s string) {
	if s != h.status {
		h.status = s
		h.dirty = true
	}
}

// HandleEvent applies a terminal event. It returns false when the host
// should quit.
func (h *Host) HandleEvent(ev Event) bool {
	switch ev.Type {
	case EventClosed:
		return false

	case EventResize:
		h.width, h.height = ev.Width, ev.Height
		h.clampScroll()
		h.dirty = true
		h.win.Resized()

	case EventKey:
		return h.handleKey(ev)
	}
	return true
}

func (h *Host) handleKey(ev Event) bool {
	step := float64(h.scrollStep)
	pageRows := float64(max(1, h.ViewportHeight()-h.bandHeight()))

	switch ev.Key {
	case KeyEscape, KeyCtrlC:
		return false
	case KeyUp:
		h.ScrollBy(-step)
	case KeyDown:
		h.ScrollBy(step)
	case KeyPageUp:
		h.ScrollBy(-pageRows)
	case KeyPageDown:
		h.ScrollBy(pageRows)
	case KeyHome:
		h.ScrollTo(0)
	case KeyEnd:
		h.ScrollTo(h.MaxScroll())
	case KeyRune:
		switch ev.Rune {
		case 'q':
			return false
		case 'k':
			h.ScrollBy(-step)
		case 'j', ' ':
			h.ScrollBy(step)
		case 'g':
			h.ScrollTo(0)
		case 'G':
			h.ScrollTo(h.MaxScroll())
		case 'r':
			if h.onReload != nil {
				h.onReload()
			}
		}
	}
	return true
}

// Draw repaints the screen if anything changed since the last Draw.
func (h *Host) Draw() {
	if !h.dirty || h.page == nil {
		return
	}
	h.dirty = false

	h.backend.Clear()
	h.drawDocument()
	h.drawBand()
	if h.statusLine && h.height > 0 {
		h.drawStatus(h.height - 1)
	}
	h.backend.Show()
}

func (h *Host) drawDocument() {
	scroll := int(math.Floor(h.win.ScrollY()))
	rows := h.ViewportHeight()

	bi := 0
	for vy := 0; vy < rows; vy++ {
		doc := scroll + vy
		for bi < len(h.blocks) && h.blocks[bi].placement.Bottom() <= doc {
			bi++
		}
		if bi >= len(h.blocks) {
			return
		}
		pl := h.blocks[bi].placement
		if doc < pl.Top {
			continue
		}

		style := tcell.StyleDefault
		if pl.Tracked() {
			style = h.palette.Swatch(pl.Variant).Style()
		}
		fillRow(h.backend, 0, vy, h.width, style)
		if line := blockLine(pl, doc-pl.Top); line != "" {
			if doc == pl.Top {
				style = style.Bold(true)
			}
			drawText(h.backend, 2, vy, h.width-2, line, style)
		}
	}
}

// blockLine returns line n of a block: the title, then body lines.
func blockLine(pl page.Placement, n int) string {
	if n == 0 {
		return pl.Title
	}
	lines := strings.Split(strings.TrimRight(pl.Body, "\n"), "\n")
	if n-1 < len(lines) {
		return lines[n-1]
	}
	return ""
}

func (h *Host) drawBand() {
	rows := min(h.bandHeight(), h.ViewportHeight())
	mid := (h.bandHeight() - 1) / 2

	for r := 0; r < rows; r++ {
		l := h.layerAt(r)
		if l == nil {
			continue
		}
		style := h.palette.Swatch(l.variant.Name).Style()
		fillRow(h.backend, 0, r, h.width, style)
		if r != mid {
			continue
		}
		title := h.page.Band.Title
		drawText(h.backend, 1, r, h.width-1, title, style.Bold(true))
		tag := "[" + l.variant.Name + "]"
		if x := h.width - textWidth(tag) - 1; x > textWidth(title)+2 {
			drawText(h.backend, x, r, h.width-x, tag, style)
		}
	}
}

// layerAt returns the topmost layer revealing band row r. Later variants
// paint over earlier ones.
func (h *Host) layerAt(r int) *Layer {
	for i := len(h.layers) - 1; i >= 0; i-- {
		if h.layers[i].covers(r) {
			return h.layers[i]
		}
	}
	return nil
}

func (h *Host) drawStatus(y int) {
	bg := h.palette.Blend(h.active)
	style := tcell.StyleDefault.Background(tcellColor(bg)).Foreground(tcellColor(fallbackFG))
	fillRow(h.backend, 0, y, h.width, style)

	parts := make([]string, 0, len(h.active))
	for _, a := range h.active {
		parts = append(parts, fmt.Sprintf("%s %3.0f%%", a.Name, a.Progress*100))
	}
	left := fitText(" "+strings.Join(parts, " | "), h.width)
	used := drawText(h.backend, 0, y, h.width, left, style)

	if h.status == "" {
		return
	}
	right := fitText(h.status, max(0, h.width-used-2))
	if right == "" {
		return
	}
	drawText(h.backend, h.width-textWidth(right)-1, y, textWidth(right), right, style)
}

func (h *Host) bandHeight() int {
	if h.page == nil {
		return 0
	}
	return h.page.Band.Height
}

func (h *Host) clampScroll() {
	if y := h.win.ScrollY(); y > h.MaxScroll() {
		h.win.SetScroll(h.MaxScroll())
	}
}
