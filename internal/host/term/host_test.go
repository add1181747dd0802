package term

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/page"
	"github.com/dshills/bandswap/internal/schedule"
)

const testPage = `
band:
  height: 4
  title: bandswap
variants:
  - name: light
    default: true
    bg: "#eeeeee"
    fg: "#111111"
  - name: dark
    bg: "#101010"
    fg: "#ffffff"
sections:
  - height: 10
    title: Intro
  - variant: dark
    height: 8
    title: Dark
    body: |
      first
      second
  - height: 30
`

type fixture struct {
	backend *NullBackend
	host    *Host
	frames  *schedule.ManualFrames
	engine  *clip.Engine
}

func newFixture(t *testing.T, src string) *fixture {
	t.Helper()

	p, err := page.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	b := NewNullBackend(40, 20)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	h := New(b)
	targets, sections, err := h.Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	frames := schedule.NewManualFrames()
	e, err := clip.New(clip.Config{
		Band:     h.Band(),
		Window:   h.Window(),
		Frames:   frames,
		Targets:  targets,
		Sections: sections,
		OnChange: h.SetActive,
	})
	if err != nil {
		t.Fatalf("clip.New failed: %v", err)
	}
	t.Cleanup(e.Destroy)

	return &fixture{backend: b, host: h, frames: frames, engine: e}
}

func (f *fixture) scroll(y float64) {
	f.host.ScrollTo(y)
	f.frames.Flush()
	f.host.Draw()
}

func bgAt(b *NullBackend, x, y int) tcell.Color {
	_, bg, _ := b.Cell(x, y).Style.Decompose()
	return bg
}

var (
	lightBG = tcell.NewRGBColor(0xee, 0xee, 0xee)
	darkBG  = tcell.NewRGBColor(0x10, 0x10, 0x10)
)

func TestHost_BandFollowsScroll(t *testing.T) {
	f := newFixture(t, testPage)
	f.host.Draw()

	for r := 0; r < 4; r++ {
		if got := bgAt(f.backend, 0, r); got != lightBG {
			t.Errorf("scroll 0: band row %d bg = %v, want light", r, got)
		}
	}
	if row := f.backend.Row(1); !strings.Contains(row, "bandswap") || !strings.Contains(row, "[light]") {
		t.Errorf("title row = %q", row)
	}

	// Dark section at document rows 10..18 reaches band rows 2..3.
	f.scroll(8)
	want := []tcell.Color{lightBG, lightBG, darkBG, darkBG}
	for r, w := range want {
		if got := bgAt(f.backend, 0, r); got != w {
			t.Errorf("scroll 8: band row %d bg = %v, want %v", r, got, w)
		}
	}
	opt := cmpopts.EquateApprox(0, 1e-9)
	wantActive := []core.ActiveVariant{{Name: "light", Progress: 0.5}, {Name: "dark", Progress: 0.5}}
	if diff := cmp.Diff(wantActive, f.engine.Active(), opt); diff != "" {
		t.Errorf("Active() mismatch (-want +got):\n%s", diff)
	}

	f.scroll(12)
	for r := 0; r < 4; r++ {
		if got := bgAt(f.backend, 0, r); got != darkBG {
			t.Errorf("scroll 12: band row %d bg = %v, want dark", r, got)
		}
	}
	if row := f.backend.Row(1); !strings.Contains(row, "[dark]") {
		t.Errorf("title row = %q, want dark tag", row)
	}
}

func TestHost_StatusLine(t *testing.T) {
	f := newFixture(t, testPage)
	f.scroll(8)

	status := f.backend.Row(19)
	if !strings.Contains(status, "light  50%") || !strings.Contains(status, "dark  50%") {
		t.Errorf("status = %q", status)
	}

	f.host.SetStatus("hook says hi")
	f.host.Draw()
	if !strings.HasSuffix(f.backend.Row(19), "hook says hi") {
		t.Errorf("status = %q, want hook text on the right", f.backend.Row(19))
	}
}

func TestHost_DocumentRows(t *testing.T) {
	f := newFixture(t, testPage)
	f.host.Draw()

	// Rows below the band show the document: row 10 is the dark title.
	if row := f.backend.Row(10); !strings.Contains(row, "Dark") {
		t.Errorf("row 10 = %q", row)
	}
	if row := f.backend.Row(11); !strings.Contains(row, "first") {
		t.Errorf("row 11 = %q", row)
	}
	if got := bgAt(f.backend, 0, 12); got != darkBG {
		t.Errorf("row 12 bg = %v, want dark section tint", got)
	}
}

func TestHost_ScrollClamped(t *testing.T) {
	f := newFixture(t, testPage)

	f.host.ScrollTo(-5)
	if f.host.Window().ScrollY() != 0 {
		t.Errorf("ScrollY = %v, want 0", f.host.Window().ScrollY())
	}
	// 48 document rows, 19 viewport rows.
	f.host.ScrollTo(1000)
	if f.host.Window().ScrollY() != 29 {
		t.Errorf("ScrollY = %v, want 29", f.host.Window().ScrollY())
	}
}

func TestHost_Keys(t *testing.T) {
	f := newFixture(t, testPage)
	key := func(r rune) bool {
		return f.host.HandleEvent(Event{Type: EventKey, Key: KeyRune, Rune: r})
	}

	key('j')
	key('j')
	key('k')
	if y := f.host.Window().ScrollY(); y != 1 {
		t.Errorf("after j j k ScrollY = %v, want 1", y)
	}
	key('G')
	if y := f.host.Window().ScrollY(); y != 29 {
		t.Errorf("after G ScrollY = %v, want 29", y)
	}
	f.host.HandleEvent(Event{Type: EventKey, Key: KeyHome})
	if y := f.host.Window().ScrollY(); y != 0 {
		t.Errorf("after Home ScrollY = %v, want 0", y)
	}
	f.host.HandleEvent(Event{Type: EventKey, Key: KeyPageDown})
	if y := f.host.Window().ScrollY(); y != 15 {
		t.Errorf("after PgDn ScrollY = %v, want 15", y)
	}
	if key('q') {
		t.Error("q should quit")
	}
	if f.host.HandleEvent(Event{Type: EventKey, Key: KeyCtrlC}) {
		t.Error("Ctrl-C should quit")
	}
}

func TestHost_ReloadKey(t *testing.T) {
	b := NewNullBackend(20, 10)
	_ = b.Init()
	reloads := 0
	h := New(b, WithReload(func() { reloads++ }))
	h.HandleEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'r'})
	if reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
}

func TestHost_Resize(t *testing.T) {
	f := newFixture(t, testPage)
	before := f.engine.Stats().Remeasures

	f.host.ScrollTo(29)
	f.backend.Resize(40, 40)
	ev := f.backend.PollEvent()
	if !f.host.HandleEvent(ev) {
		t.Fatal("resize should not quit")
	}

	if f.host.ViewportHeight() != 39 {
		t.Errorf("ViewportHeight = %d, want 39", f.host.ViewportHeight())
	}
	if y := f.host.Window().ScrollY(); y != 9 {
		t.Errorf("ScrollY = %v, want clamp to 9", y)
	}
	if f.engine.Stats().Remeasures <= before {
		t.Error("resize did not re-measure sections")
	}
}

func TestHost_ReloadBandHeight(t *testing.T) {
	f := newFixture(t, testPage)
	f.frames.Flush()

	taller := strings.Replace(testPage, "height: 4", "height: 6", 1)
	p, err := page.Parse([]byte(taller))
	if err != nil {
		t.Fatal(err)
	}
	targets, sections, err := f.host.Load(p)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !f.engine.Pending() {
		t.Error("band height change should schedule a recompute")
	}
	if err := f.engine.Update(targets, sections); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	f.frames.Flush()

	if n := len(f.host.Layers()); n != 2 {
		t.Errorf("layers = %d", n)
	}
	if got := f.host.Layers()[0].Clip(); got.Kind != core.ClipFull {
		t.Errorf("default clip = %v, want full", got)
	}
}

func TestHost_Pump(t *testing.T) {
	b := NewNullBackend(20, 10)
	_ = b.Init()
	h := New(b)

	loop := schedule.NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	quit := func() {
		loop.Stop()
		b.Shutdown()
	}
	b.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'j'})
	b.PostEvent(Event{Type: EventKey, Key: KeyRune, Rune: 'q'})
	if err := h.Pump(ctx, loop.Post, quit); err != nil {
		t.Fatalf("Pump returned %v", err)
	}

	// q was posted; the loop stops once it runs the handler.
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-ctx.Done():
		t.Fatal("loop did not stop")
	}
}

func TestHost_LoadRejectedKeepsPage(t *testing.T) {
	f := newFixture(t, testPage)
	f.frames.Flush()
	before := f.host.Layers()
	current := f.host.Page()

	bad := &page.Page{
		Band: page.Band{Height: 6},
		Variants: []page.Variant{
			{Name: "light", Default: true},
			{Name: "dark", Default: true},
		},
		Sections: []page.Section{{Height: 10}},
	}
	targets, sections, err := f.host.Load(bad)
	if !errors.Is(err, clip.ErrMultipleDefaults) {
		t.Fatalf("Load error = %v, want ErrMultipleDefaults", err)
	}
	if targets != nil || sections != nil {
		t.Errorf("rejected load returned %d targets, %d sections", len(targets), len(sections))
	}

	if f.host.Page() != current {
		t.Error("rejected load replaced the page")
	}
	after := f.host.Layers()
	if len(after) != len(before) {
		t.Fatalf("layers = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("layer %d replaced", i)
		}
	}
	if f.engine.Pending() {
		t.Error("rejected load should not schedule a recompute")
	}
}
