package term

import (
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/page"
)

// Block is a laid-out section of the document.
type Block struct {
	host      *Host
	placement page.Placement
}

// Bounds returns the block's viewport box.
func (b *Block) Bounds() core.Rect {
	return core.NewRect(float64(b.placement.Top)-b.host.win.ScrollY(), float64(b.placement.Height))
}

// bandElement is the fixed band at the top of the viewport. Its height
// follows the loaded page.
type bandElement struct {
	host *Host
}

func (b *bandElement) Bounds() core.Rect {
	return core.NewRect(0, float64(b.host.bandHeight()))
}

// Layer is one variant's copy of the band content.
type Layer struct {
	host    *Host
	variant page.Variant
	clip    core.Clip
}

// Name returns the variant name.
func (l *Layer) Name() string {
	return l.variant.Name
}

// Clip returns the clip last written by the engine.
func (l *Layer) Clip() core.Clip {
	return l.clip
}

// Bounds returns the layer's box: the band, or its own height when the
// variant declares one.
func (l *Layer) Bounds() core.Rect {
	return core.NewRect(0, float64(l.height()))
}

// SetClip records the clip and marks the screen dirty.
func (l *Layer) SetClip(c core.Clip) {
	if c.Equals(l.clip) {
		return
	}
	l.clip = c
	l.host.dirty = true
}

func (l *Layer) height() int {
	if l.variant.Own && l.variant.Height > 0 {
		return l.variant.Height
	}
	return l.host.bandHeight()
}

// covers reports whether band row r is visible on this layer.
func (l *Layer) covers(r int) bool {
	return l.clip.Contains(float64(r)+0.5, float64(l.height()))
}
