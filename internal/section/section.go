// Package section tracks the document-relative geometry of page sections.
//
// A Section caches the top offset and height of its element as of the last
// Measure call. The cache goes stale as the page lays out again and is
// refreshed explicitly by the clip engine on resize and size-change events.
package section

import "github.com/dshills/bandswap/internal/core"

// Section is a page region associated with one variant.
type Section struct {
	// Element is the underlying page element. Not owned.
	Element core.Element

	// Variant is the variant name revealed while this section overlaps the band.
	Variant string

	// Top is the cached document-relative top offset.
	Top float64

	// Height is the cached height.
	Height float64
}

// New creates a section with empty geometry.
func New(el core.Element, variant string) *Section {
	return &Section{Element: el, Variant: variant}
}

// ViewRect returns the cached geometry translated into viewport coordinates.
func (s *Section) ViewRect(scrollY float64) core.Rect {
	return core.NewRect(s.Top-scrollY, s.Height)
}

// Measure refreshes the section's cached geometry from its element.
// A nil element measures as a zero box.
func Measure(s *Section, w core.ScrollReader) {
	var rect core.Rect
	if s.Element != nil {
		rect = s.Element.Bounds()
	}
	var scrollY float64
	if w != nil {
		scrollY = w.ScrollY()
	}
	s.Top = rect.Top + scrollY
	s.Height = max(0, rect.Height)
}

// RefreshAll measures every section.
func RefreshAll(sections []*Section, w core.ScrollReader) {
	for _, s := range sections {
		if s != nil {
			Measure(s, w)
		}
	}
}
