package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/page"
)

// Fallback colours for variants that declare none.
var (
	fallbackFG = colorful.Color{R: 0.9, G: 0.9, B: 0.9}
	fallbackBG = colorful.Color{R: 0.15, G: 0.15, B: 0.18}
)

// Swatch is a variant's resolved colours.
type Swatch struct {
	FG, BG colorful.Color
}

// Style returns the tcell style for the swatch.
func (s Swatch) Style() tcell.Style {
	return tcell.StyleDefault.Foreground(tcellColor(s.FG)).Background(tcellColor(s.BG))
}

// Palette maps variant names to swatches.
type Palette struct {
	swatches map[string]Swatch
	def      string
}

// NewPalette resolves the colours of every variant on p. Invalid colours
// fall back; p.Validate rejects them earlier.
func NewPalette(p *page.Page) Palette {
	pal := Palette{swatches: make(map[string]Swatch, len(p.Variants))}
	for _, v := range p.Variants {
		sw := Swatch{FG: fallbackFG, BG: fallbackBG}
		if v.FG != "" {
			if c, err := page.ParseColor(v.FG); err == nil {
				sw.FG = c
			}
		}
		if v.BG != "" {
			if c, err := page.ParseColor(v.BG); err == nil {
				sw.BG = c
			}
		}
		pal.swatches[v.Name] = sw
		if v.Default {
			pal.def = v.Name
		}
	}
	return pal
}

// Swatch returns the colours of a variant, or the fallback.
func (p Palette) Swatch(name string) Swatch {
	if sw, ok := p.swatches[name]; ok {
		return sw
	}
	return Swatch{FG: fallbackFG, BG: fallbackBG}
}

// Blend mixes the background of every active variant weighted by progress.
// An empty list yields the default variant's background.
func (p Palette) Blend(active []core.ActiveVariant) colorful.Color {
	out := p.Swatch(p.def).BG
	total := 0.0
	for _, a := range active {
		if a.Progress <= 0 {
			continue
		}
		total += a.Progress
		out = out.BlendLab(p.Swatch(a.Name).BG, a.Progress/total).Clamped()
	}
	return out
}

func tcellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
