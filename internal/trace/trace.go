// Package trace scrolls a page headlessly from top to bottom and writes one
// JSON line per change of the active variant set:
//
//	{"scroll":8,"active":[{"name":"light","progress":0.5},{"name":"dark","progress":0.5}]}
//
// When a hook is attached its status string is included as "status".
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/host/term"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/page"
	"github.com/dshills/bandswap/internal/schedule"
)

// ErrInvalidLine is returned by ParseLine for malformed input.
var ErrInvalidLine = errors.New("invalid trace line")

// Hook maps an active list to a status string.
type Hook interface {
	OnChange(active []core.ActiveVariant) (string, error)
}

// Options configures a trace run.
type Options struct {
	// Step is the scroll increment in rows. Defaults to 1.
	Step float64
	// Width and Height size the virtual terminal. Default 80x40.
	Width, Height int
	Hook          Hook
	Logger        *logging.Logger
}

// Record is one decoded trace line.
type Record struct {
	Scroll float64
	Active []core.ActiveVariant
	Status string
}

// Run traces p and writes lines to w. It returns the number of lines
// written.
func Run(ctx context.Context, w io.Writer, p *page.Page, opts Options) (int, error) {
	if opts.Step <= 0 {
		opts.Step = 1
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 1 {
		opts.Height = 40
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Null()
	}
	logger = logger.WithComponent("trace")

	backend := term.NewNullBackend(opts.Width, opts.Height)
	if err := backend.Init(); err != nil {
		return 0, err
	}
	defer backend.Shutdown()

	host := term.New(backend, term.WithLogger(logger))
	targets, sections, err := host.Load(p)
	if err != nil {
		return 0, err
	}

	var (
		lines    int
		writeErr error
	)
	emit := func(active []core.ActiveVariant) {
		if writeErr != nil {
			return
		}
		status := ""
		if opts.Hook != nil {
			s, err := opts.Hook.OnChange(active)
			if err != nil {
				logger.Warn("hook failed: %v", err)
			}
			status = s
		}
		line, err := Line(host.Window().ScrollY(), active, status)
		if err != nil {
			writeErr = err
			return
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			writeErr = fmt.Errorf("writing trace: %w", err)
			return
		}
		lines++
	}

	frames := schedule.NewManualFrames()
	engine, err := clip.New(clip.Config{
		Band:     host.Band(),
		Window:   host.Window(),
		Frames:   frames,
		Targets:  targets,
		Sections: sections,
		OnChange: emit,
		Logger:   logger,
	})
	if err != nil {
		return 0, err
	}
	defer engine.Destroy()

	end := host.MaxScroll()
	for y := opts.Step; ; y += opts.Step {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		host.ScrollTo(math.Min(y, end))
		frames.Flush()
		if writeErr != nil {
			return lines, writeErr
		}
		if y >= end {
			break
		}
	}

	logger.Debug("traced %v rows in %d lines", end, lines)
	return lines, nil
}

// Line encodes one trace record. Progress is rounded to three decimals,
// matching the engine's change signature.
func Line(scroll float64, active []core.ActiveVariant, status string) ([]byte, error) {
	out := []byte(`{}`)
	var err error

	if out, err = sjson.SetBytes(out, "scroll", scroll); err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "active", []byte(`[]`)); err != nil {
		return nil, err
	}
	for i, a := range active {
		if out, err = sjson.SetBytes(out, fmt.Sprintf("active.%d.name", i), a.Name); err != nil {
			return nil, err
		}
		progress := math.Round(a.Progress*1000) / 1000
		if out, err = sjson.SetBytes(out, fmt.Sprintf("active.%d.progress", i), progress); err != nil {
			return nil, err
		}
	}
	if status != "" {
		if out, err = sjson.SetBytes(out, "status", status); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ParseLine decodes a line written by Line.
func ParseLine(line []byte) (Record, error) {
	if !gjson.ValidBytes(line) {
		return Record{}, ErrInvalidLine
	}
	doc := gjson.ParseBytes(line)
	scroll := doc.Get("scroll")
	if !scroll.Exists() {
		return Record{}, fmt.Errorf("%w: missing scroll", ErrInvalidLine)
	}

	rec := Record{
		Scroll: scroll.Float(),
		Status: doc.Get("status").String(),
	}
	doc.Get("active").ForEach(func(_, v gjson.Result) bool {
		rec.Active = append(rec.Active, core.ActiveVariant{
			Name:     v.Get("name").String(),
			Progress: v.Get("progress").Float(),
		})
		return true
	})
	return rec, nil
}
