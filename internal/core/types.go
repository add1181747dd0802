// Package core provides shared types for the clip engine and its hosts.
// This package breaks import cycles between the engine, the section tracker
// and the host adapters.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a vertical extent measured in host units (pixels for a browser,
// rows for a terminal). Top is relative to whatever origin the producer uses:
// the viewport for element bounds, the document for cached section geometry.
type Rect struct {
	Top    float64
	Height float64
}

// NewRect creates a rect from its top edge and height.
func NewRect(top, height float64) Rect {
	return Rect{Top: top, Height: height}
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Overlap returns the overlapping interval of r and other.
// The returned extent is zero when the rects do not intersect.
func (r Rect) Overlap(other Rect) (top, bottom, extent float64) {
	top = max(r.Top, other.Top)
	bottom = min(r.Bottom(), other.Bottom())
	return top, bottom, max(0, bottom-top)
}

// ClipKind identifies how a clip region is expressed.
type ClipKind uint8

const (
	// ClipHidden hides the element entirely.
	ClipHidden ClipKind = iota
	// ClipFull shows the whole element.
	ClipFull
	// ClipWindow reveals the band between Top and height-Bottom.
	ClipWindow
)

// String returns the kind name.
func (k ClipKind) String() string {
	switch k {
	case ClipHidden:
		return "hidden"
	case ClipFull:
		return "full"
	case ClipWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Clip is a clip region expressed as insets from an element's top and bottom edges.
type Clip struct {
	Kind   ClipKind
	Top    float64 // Inset from the top edge (ClipWindow only)
	Bottom float64 // Inset from the bottom edge (ClipWindow only)
}

// HiddenClip returns a clip that hides everything.
func HiddenClip() Clip {
	return Clip{Kind: ClipHidden}
}

// FullClip returns a clip that shows everything.
func FullClip() Clip {
	return Clip{Kind: ClipFull}
}

// WindowClip returns a clip revealing [top, height-bottom].
func WindowClip(top, bottom float64) Clip {
	return Clip{Kind: ClipWindow, Top: top, Bottom: bottom}
}

// Contains reports whether offset y, measured from the element's top edge,
// falls inside the visible part of an element of the given height.
func (c Clip) Contains(y, height float64) bool {
	switch c.Kind {
	case ClipFull:
		return y >= 0 && y < height
	case ClipWindow:
		return y >= c.Top && y < height-c.Bottom
	default:
		return false
	}
}

// CSS returns the clip as a CSS clip-path value.
func (c Clip) CSS() string {
	switch c.Kind {
	case ClipFull:
		return "inset(0)"
	case ClipWindow:
		return fmt.Sprintf("inset(%spx 0 %spx 0)", formatLength(c.Top), formatLength(c.Bottom))
	default:
		return "inset(0 0 100% 0)"
	}
}

// String returns a human readable description.
func (c Clip) String() string {
	if c.Kind != ClipWindow {
		return c.Kind.String()
	}
	return fmt.Sprintf("window(%s,%s)", formatLength(c.Top), formatLength(c.Bottom))
}

// Equals returns true if two clips describe the same region.
func (c Clip) Equals(other Clip) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Kind != ClipWindow {
		return true
	}
	return c.Top == other.Top && c.Bottom == other.Bottom
}

func formatLength(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ActiveVariant is a variant currently covering part of the band.
type ActiveVariant struct {
	// Name is the variant name.
	Name string
	// Progress is the fraction (0 to 1) of the band attributed to this variant.
	Progress float64
}

// Signature returns a deterministic key for a list of active variants.
// Progress is rounded to three decimals so that sub-threshold jitter does
// not produce a new key.
func Signature(active []ActiveVariant) string {
	var sb strings.Builder
	for i, v := range active {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(v.Name)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(v.Progress, 'f', 3, 64))
	}
	return sb.String()
}

// CloneActive returns a copy of the list.
func CloneActive(active []ActiveVariant) []ActiveVariant {
	if active == nil {
		return nil
	}
	out := make([]ActiveVariant, len(active))
	copy(out, active)
	return out
}
