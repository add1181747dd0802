// Package page reads the YAML description of a scrolling page: the fixed
// band, its variants, and the sections that scroll beneath it.
//
// Heights are in rows. A minimal page:
//
//	band:
//	  height: 3
//	  title: "bandswap"
//	variants:
//	  - name: light
//	    default: true
//	  - name: dark
//	    fg: "#ffffff"
//	    bg: "#101010"
//	sections:
//	  - height: 10
//	  - variant: dark
//	    height: 12
//	    title: "Dark section"
package page

import (
	"errors"
	"fmt"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrNoBand           = errors.New("band height must be positive")
	ErrNoVariants       = errors.New("no variants declared")
	ErrNoDefault        = errors.New("no default variant")
	ErrMultipleDefaults = errors.New("more than one default variant")
	ErrDuplicateVariant = errors.New("duplicate variant")
	ErrUnknownVariant   = errors.New("unknown variant")
	ErrInvalidHeight    = errors.New("invalid height")
	ErrInvalidColor     = errors.New("invalid color")
)

// Page is a parsed page description.
type Page struct {
	Band     Band      `yaml:"band"`
	Variants []Variant `yaml:"variants"`
	Sections []Section `yaml:"sections"`
}

// Band is the fixed region at the top of the viewport.
type Band struct {
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Variant is one styling of the band content.
type Variant struct {
	Name    string `yaml:"name"`
	FG      string `yaml:"fg"`
	BG      string `yaml:"bg"`
	Default bool   `yaml:"default"`

	// Own clips against the variant's own box rather than the band.
	Own bool `yaml:"own"`

	// Height of the variant's own box. Zero means the band height.
	// Only meaningful with Own.
	Height int `yaml:"height"`
}

// Section is a block of scrolling content. An empty Variant makes it a
// spacer that no variant tracks.
type Section struct {
	Variant string `yaml:"variant"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	Body    string `yaml:"body"`
}

// Parse decodes and validates a page description.
func Parse(data []byte) (*Page, error) {
	var p Page
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads and parses the page at path.
func Load(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate checks the band, the variant set and every section reference.
func (p *Page) Validate() error {
	if p.Band.Height <= 0 {
		return ErrNoBand
	}
	if len(p.Variants) == 0 {
		return ErrNoVariants
	}

	names := make(map[string]bool, len(p.Variants))
	defaults := 0
	for i, v := range p.Variants {
		if v.Name == "" {
			return fmt.Errorf("variant %d: empty name", i)
		}
		if names[v.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateVariant, v.Name)
		}
		names[v.Name] = true
		if v.Default {
			defaults++
		}
		if v.Height < 0 {
			return fmt.Errorf("variant %q: %w %d", v.Name, ErrInvalidHeight, v.Height)
		}
		for _, c := range []string{v.FG, v.BG} {
			if _, err := ParseColor(c); err != nil {
				return fmt.Errorf("variant %q: %w", v.Name, err)
			}
		}
	}
	switch {
	case defaults == 0:
		return ErrNoDefault
	case defaults > 1:
		return ErrMultipleDefaults
	}

	for i, s := range p.Sections {
		if s.Height < 0 {
			return fmt.Errorf("section %d: %w %d", i, ErrInvalidHeight, s.Height)
		}
		if s.Variant != "" && !names[s.Variant] {
			return fmt.Errorf("section %d: %w %q", i, ErrUnknownVariant, s.Variant)
		}
	}
	return nil
}

// Default returns the default variant. The page must be valid.
func (p *Page) Default() Variant {
	for _, v := range p.Variants {
		if v.Default {
			return v
		}
	}
	return Variant{}
}

// Variant looks up a variant by name.
func (p *Page) Variant(name string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ParseColor parses a "#rrggbb" colour. Empty yields the zero colour.
func ParseColor(s string) (colorful.Color, error) {
	if s == "" {
		return colorful.Color{}, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	return c, nil
}
