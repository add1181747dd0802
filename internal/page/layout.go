package page

// Placement is a section positioned in document rows.
type Placement struct {
	Index   int
	Variant string
	Title   string
	Body    string
	Top     int
	Height  int
}

// Bottom returns the first row below the placement.
func (pl Placement) Bottom() int {
	return pl.Top + pl.Height
}

// Tracked reports whether a variant follows this section.
func (pl Placement) Tracked() bool {
	return pl.Variant != ""
}

// Layout stacks sections top to bottom from document row 0.
func (p *Page) Layout() []Placement {
	out := make([]Placement, len(p.Sections))
	top := 0
	for i, s := range p.Sections {
		out[i] = Placement{
			Index:   i,
			Variant: s.Variant,
			Title:   s.Title,
			Body:    s.Body,
			Top:     top,
			Height:  s.Height,
		}
		top += s.Height
	}
	return out
}

// Height returns the total document height in rows.
func (p *Page) Height() int {
	h := 0
	for _, s := range p.Sections {
		h += s.Height
	}
	return h
}

// MaxScroll returns the largest scroll offset that keeps the last row on a
// viewport of the given height.
func (p *Page) MaxScroll(viewport int) int {
	return max(0, p.Height()-viewport)
}
