package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/host/browser"
	"github.com/dshills/bandswap/internal/section"
)

// Browse opens the configured URL in Chrome and drives the band found in
// its markup until ctx ends or the page goes away. Active-variant changes
// and hook output are logged.
func (app *Application) Browse(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	bc := app.cfg.Browser
	if bc.URL == "" {
		return ErrNoURL
	}

	sess, err := browser.Open(ctx, browser.Config{
		URL:       bc.URL,
		RemoteURL: bc.RemoteURL,
		Bin:       bc.Bin,
		Headless:  bc.Headless,
		Stealth:   bc.Stealth,
		Logger:    app.logger,
	})
	if err != nil {
		return NewOperationError("open", bc.URL, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			app.logger.Warn("closing browser: %v", err)
		}
	}()

	h, err := browser.NewHost(sess.Page, app.post, app.logger)
	if err != nil {
		return &InitError{Component: "bridge", Err: err}
	}

	app.engine = nil
	if err := app.attach(h); err != nil {
		return err
	}
	defer func() { app.engine.Destroy() }()
	h.OnDocument(func() { app.rescan(h) })

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := app.loop.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := h.Listen(gctx)
		cancel()
		return err
	})

	app.logger.Info("browsing %s", bc.URL)
	err = g.Wait()
	app.logSummary()
	return err
}

// document is a page the clip engine can be attached to.
type document interface {
	core.Window
	Scan() (core.Element, []clip.Target, []*section.Section, error)
}

// attach scans doc and replaces the current engine with one driving it.
// The old engine is destroyed first, so a failed scan leaves none running.
func (app *Application) attach(doc document) error {
	if app.engine != nil {
		app.engine.Destroy()
	}

	band, targets, sections, err := doc.Scan()
	if err != nil {
		return NewOperationError("scan", app.cfg.Browser.URL, err)
	}
	engine, err := clip.New(clip.Config{
		Band:     band,
		Window:   doc,
		Frames:   app.loop,
		Targets:  targets,
		Sections: sections,
		OnChange: app.notifier.Notify,
		Logger:   app.logger,
	})
	if err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	app.engine = engine
	return nil
}

// rescan re-attaches after the page loads a new document.
func (app *Application) rescan(doc document) {
	if err := app.attach(doc); err != nil {
		app.logger.Warn("%v", err)
		return
	}
	app.logger.Info("rescanned %s", app.cfg.Browser.URL)
}
