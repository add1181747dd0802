package clip

import (
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/section"
)

// Frame is the input of one recompute.
type Frame struct {
	// Band is the band's viewport rect.
	Band core.Rect

	// ScrollY is the global vertical scroll offset.
	ScrollY float64

	// Sections carry cached document-relative geometry.
	Sections []*section.Section

	// Targets are processed in order.
	Targets []Target
}

// Result is the output of one recompute.
type Result struct {
	// Clips holds one clip per target, in target order.
	Clips []core.Clip

	// Active lists visible variants, the default first when present.
	Active []core.ActiveVariant

	// Covered is the summed overlap of all sections with the band.
	Covered float64
}

// insets is a clip window expressed from the band's top and bottom edges.
type insets struct {
	top, bottom float64
}

// Compute runs the overlap and clip algorithm for one frame.
// It returns false when the band has no height; nothing should be applied then.
func Compute(f Frame) (Result, bool) {
	band := f.Band
	h := band.Height
	if h <= 0 {
		return Result{}, false
	}

	// Band-relative insets per variant, merged by min so that coverage from
	// any section of a variant widens its window.
	merged := make(map[string]insets)
	views := make(map[string][]core.Rect)
	coverageMin := h
	coverageMax := 0.0
	covered := 0.0

	for _, s := range f.Sections {
		if s == nil {
			continue
		}
		view := s.ViewRect(f.ScrollY)
		views[s.Variant] = append(views[s.Variant], view)

		top, bottom, px := band.Overlap(view)
		if px <= 0 {
			continue
		}
		covered += px

		in := insets{top: top - band.Top, bottom: band.Bottom() - bottom}
		coverageMin = min(coverageMin, in.top)
		coverageMax = max(coverageMax, h-in.bottom)

		if prev, ok := merged[s.Variant]; ok {
			in.top = min(prev.top, in.top)
			in.bottom = min(prev.bottom, in.bottom)
		}
		merged[s.Variant] = in
	}

	res := Result{
		Clips:   make([]core.Clip, len(f.Targets)),
		Covered: covered,
	}
	defaultIdx := -1

	for i, t := range f.Targets {
		if t.Default {
			defaultIdx = i
			continue
		}

		var (
			clip     core.Clip
			progress float64
			visible  bool
		)
		if t.Geometry == GeometryOwn {
			clip, progress, visible = ownClip(t, band, views[t.Name], merged)
		} else {
			clip, progress, visible = bandClip(h, merged[t.Name], hasInsets(merged, t.Name))
		}
		res.Clips[i] = clip
		if visible {
			res.Active = append(res.Active, core.ActiveVariant{Name: t.Name, Progress: progress})
		}
	}

	if defaultIdx >= 0 {
		t := f.Targets[defaultIdx]
		scale := 1.0
		if t.Geometry == GeometryOwn {
			scale = ownRect(t, band).Height / h
		}

		clip, progress := defaultClip(h, covered, coverageMin, coverageMax, scale)
		res.Clips[defaultIdx] = clip
		if progress > 0 {
			res.Active = append([]core.ActiveVariant{{Name: t.Name, Progress: progress}}, res.Active...)
		}
	}

	return res, true
}

func hasInsets(merged map[string]insets, name string) bool {
	_, ok := merged[name]
	return ok
}

// bandClip clips a named variant against the band.
func bandClip(h float64, in insets, ok bool) (core.Clip, float64, bool) {
	if !ok || in.top+in.bottom >= h {
		return core.HiddenClip(), 0, false
	}
	return core.WindowClip(in.top, in.bottom), (h - in.top - in.bottom) / h, true
}

// ownClip clips a named variant against its own bounds. Progress still comes
// from the band-relative insets so that it is comparable across variants.
func ownClip(t Target, band core.Rect, views []core.Rect, merged map[string]insets) (core.Clip, float64, bool) {
	if len(views) == 0 {
		return core.HiddenClip(), 0, false
	}

	rect := ownRect(t, band)
	vh := rect.Height
	adjTop, adjBottom := vh, vh

	for _, v := range views {
		top, bottom, px := rect.Overlap(v)
		if px <= 0 {
			continue
		}
		adjTop = min(adjTop, top-rect.Top)
		adjBottom = min(adjBottom, rect.Bottom()-bottom)
	}

	if adjTop+adjBottom >= vh {
		return core.HiddenClip(), 0, false
	}

	var progress float64
	if in, ok := merged[t.Name]; ok {
		progress = (band.Height - in.top - in.bottom) / band.Height
	}
	return core.WindowClip(adjTop, adjBottom), progress, true
}

// ownRect returns the target's bounds, falling back to the band when the
// target has no measurable height.
func ownRect(t Target, band core.Rect) core.Rect {
	if t.Element == nil {
		return band
	}
	r := t.Element.Bounds()
	if r.Height <= 0 {
		return band
	}
	return r
}

// defaultClip shows the default variant in the larger uncovered gap, on one
// edge only. Ties reveal the gap below.
func defaultClip(h, covered, coverageMin, coverageMax, scale float64) (core.Clip, float64) {
	switch {
	case covered >= h:
		return core.HiddenClip(), 0
	case covered <= 0:
		return core.FullClip(), 1
	}

	gapAbove := coverageMin
	gapBelow := h - coverageMax

	var clip core.Clip
	if gapBelow >= gapAbove {
		clip = core.WindowClip(coverageMax*scale, 0)
	} else {
		clip = core.WindowClip(0, (h-coverageMin)*scale)
	}
	return clip, (h - covered) / h
}
