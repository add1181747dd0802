package clip

import (
	"fmt"

	"github.com/dshills/bandswap/internal/core"
)

// GeometryMode selects which box a variant is clipped against.
type GeometryMode uint8

const (
	// GeometryBand clips against the band's bounds.
	GeometryBand GeometryMode = iota

	// GeometryOwn clips against the target's own bounds, so the revealed edge
	// tracks the section boundary even when the variant is taller than the band.
	GeometryOwn
)

// String returns the mode name.
func (m GeometryMode) String() string {
	switch m {
	case GeometryBand:
		return "band"
	case GeometryOwn:
		return "own"
	default:
		return "unknown"
	}
}

// ParseGeometryMode parses a mode name. Empty means GeometryBand.
func ParseGeometryMode(s string) (GeometryMode, error) {
	switch s {
	case "", "band":
		return GeometryBand, nil
	case "own":
		return GeometryOwn, nil
	default:
		return GeometryBand, fmt.Errorf("unknown geometry mode %q", s)
	}
}

// Target is one renderable variant of the band's content.
type Target struct {
	// Name is the variant name, unique per engine.
	Name string

	// Element receives the computed clip.
	Element core.ClipTarget

	// Default marks the variant shown wherever no section overlaps the band.
	Default bool

	// Geometry selects the box the clip is computed against.
	Geometry GeometryMode
}

// ValidateTargets checks names, elements and the default flag. New and
// Update reject targets that fail it.
func ValidateTargets(targets []Target) error {
	seen := make(map[string]struct{}, len(targets))
	defaults := 0

	for i, t := range targets {
		if t.Name == "" || t.Element == nil {
			return fmt.Errorf("target %d: %w", i, ErrInvalidTarget)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("target %q: %w", t.Name, ErrDuplicateTarget)
		}
		seen[t.Name] = struct{}{}
		if t.Default {
			defaults++
		}
	}

	switch {
	case defaults == 0:
		return ErrNoDefault
	case defaults > 1:
		return ErrMultipleDefaults
	}
	return nil
}
