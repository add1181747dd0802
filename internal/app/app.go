// Package app wires configuration, logging, a host, the clip engine, the
// change notifier and the optional Lua hook, and runs them on one loop.
//
// Three modes share the wiring:
//
//   - Run drives the terminal host until the user quits.
//   - Trace scrolls the page headlessly and writes JSON lines.
//   - Browse drives a real page through the browser host.
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/bandswap/internal/clip"
	"github.com/dshills/bandswap/internal/config"
	"github.com/dshills/bandswap/internal/core"
	"github.com/dshills/bandswap/internal/hook"
	"github.com/dshills/bandswap/internal/host/term"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/notify"
	"github.com/dshills/bandswap/internal/page"
	"github.com/dshills/bandswap/internal/schedule"
	"github.com/dshills/bandswap/internal/trace"
)

// Options configures the application. Non-empty fields override the
// config file and environment.
type Options struct {
	// ConfigPath is the TOML config file. Empty reads bandswap.toml if present.
	ConfigPath string

	// PagePath is the page description.
	PagePath string

	// HookPath is the Lua change hook.
	HookPath string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Interactive discards logs unless a log file is configured, since the
	// terminal host owns the screen.
	Interactive bool

	// TraceStep overrides the trace scroll increment.
	TraceStep float64

	// URL, Headed and Stealth override the browser settings.
	URL     string
	Headed  bool
	Stealth bool

	// Backend replaces the tcell terminal.
	Backend term.Backend

	// LogOutput replaces the log destination.
	LogOutput io.Writer
}

// Application is the central coordinator.
type Application struct {
	opts    Options
	cfg     *config.Config
	logger  *logging.Logger
	logFile io.Closer
	metrics *Metrics

	loop     *schedule.Loop
	notifier *notify.Notifier
	hook     *hook.Hook

	// Set by Run.
	backend term.Backend
	host    *term.Host
	engine  *clip.Engine

	running      atomic.Bool
	shutdownOnce sync.Once
}

// New creates an application. Components are brought up in dependency
// order and torn down again on failure.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
	}
	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Notifier returns the change notifier. Subscribers run on the loop
// goroutine.
func (app *Application) Notifier() *notify.Notifier {
	return app.notifier
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Run drives the terminal host until the user quits or ctx ends. The loop,
// the input pump and the page watcher run under one errgroup.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	p, err := app.loadPage()
	if err != nil {
		return err
	}

	b := app.opts.Backend
	if b == nil {
		t, err := term.NewTerminal()
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		b = t
	}
	if err := b.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	app.backend = b
	defer app.shutdownBackend()

	app.host = term.New(b,
		term.WithLogger(app.logger),
		term.WithScrollStep(app.cfg.UI.ScrollStep),
		term.WithStatusLine(app.cfg.UI.StatusLine),
		term.WithReload(app.reload),
	)
	targets, sections, err := app.host.Load(p)
	if err != nil {
		return NewOperationError("load", app.cfg.Page.Path, err)
	}

	app.engine, err = clip.New(clip.Config{
		Band:     app.host.Band(),
		Window:   app.host.Window(),
		Frames:   app.loop,
		Targets:  targets,
		Sections: sections,
		OnChange: app.notifier.Notify,
		Logger:   app.logger,
	})
	if err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	defer app.engine.Destroy()

	app.loop.OnTick(app.draw)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	quit := func() {
		cancel()
		app.loop.Stop()
		app.shutdownBackend()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := app.loop.Run(gctx)
		quit()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return app.host.Pump(gctx, app.post, quit)
	})
	if app.cfg.Page.Watch {
		g.Go(func() error {
			app.watch(gctx)
			return nil
		})
	}

	app.logger.Info("running %s", app.cfg.Page.Path)
	err = g.Wait()
	app.logSummary()
	return err
}

// Trace scrolls the page headlessly and writes one JSON line per change
// to w. It returns the number of lines written.
func (app *Application) Trace(ctx context.Context, w io.Writer) (int, error) {
	p, err := app.loadPage()
	if err != nil {
		return 0, err
	}

	opts := trace.Options{
		Step:   app.cfg.Trace.Step,
		Width:  app.cfg.Trace.Cols,
		Height: app.cfg.Trace.Rows,
		Logger: app.logger,
	}
	if app.hook != nil {
		opts.Hook = app.hook
	}

	n, err := trace.Run(ctx, w, p, opts)
	if err != nil {
		return n, NewOperationError("trace", app.cfg.Page.Path, err)
	}
	return n, nil
}

// Close releases the hook, the notifier and the log file. Safe to call
// more than once.
func (app *Application) Close() error {
	var errs []error
	if app.hook != nil {
		errs = append(errs, app.hook.Close())
	}
	if app.notifier != nil {
		app.notifier.Close()
	}
	if app.logFile != nil {
		errs = append(errs, app.logFile.Close())
		app.logFile = nil
	}
	return errors.Join(errs...)
}

// onChange receives every active-variant change on the loop goroutine.
func (app *Application) onChange(c notify.Change) {
	app.metrics.RecordChange()
	sig := core.Signature(c.Active)

	if app.host != nil {
		app.host.SetActive(c.Active)
		app.logger.Debug("active: %s", sig)
	} else {
		app.logger.Info("active: %s", sig)
	}

	if app.hook == nil {
		return
	}
	timer := StartTimer()
	status, err := app.hook.OnChange(c.Active)
	app.metrics.RecordHook(timer.Elapsed(), err)
	if err != nil {
		app.logger.Warn("%v", NewOperationError("hook", app.cfg.Hook.Script, err))
		return
	}
	if app.host != nil {
		app.host.SetStatus(status)
	} else if status != "" {
		app.logger.Info("hook: %s", status)
	}
}

// post queues fn on the loop and counts it.
func (app *Application) post(fn func()) bool {
	if !app.loop.Post(fn) {
		app.metrics.RecordInputDropped()
		return false
	}
	app.metrics.RecordInput()
	return true
}

// recoverPanic logs a panic recovered on the loop goroutine.
func (app *Application) recoverPanic(value any, stack []byte) {
	app.metrics.RecordPanic()
	app.logger.Error("%v", &RecoveredPanicError{Value: value, Stack: string(stack)})
}

func (app *Application) draw() {
	timer := StartTimer()
	app.host.Draw()
	app.metrics.RecordDraw(timer.Elapsed())
}

func (app *Application) loadPage() (*page.Page, error) {
	path := app.cfg.Page.Path
	if path == "" {
		return nil, ErrNoPage
	}
	p, err := page.Load(path)
	if err != nil {
		return nil, NewOperationError("load", path, err)
	}
	return p, nil
}

// watch reloads the page on change. Watch failures are logged, not fatal.
func (app *Application) watch(ctx context.Context) {
	delay := time.Duration(app.cfg.Page.DebounceMs) * time.Millisecond
	err := page.Watch(ctx, app.cfg.Page.Path, delay, func(p *page.Page, err error) {
		app.post(func() { app.apply(p, err) })
	})
	if err != nil && ctx.Err() == nil {
		app.logger.Warn("%v", NewOperationError("watch", app.cfg.Page.Path, err))
	}
}

// reload handles the reload key.
func (app *Application) reload() {
	p, err := page.Load(app.cfg.Page.Path)
	app.apply(p, err)
}

// apply hot-swaps a reloaded page. A failed reload keeps the current page.
func (app *Application) apply(p *page.Page, err error) {
	app.metrics.RecordReload(err)
	if err != nil {
		app.logger.Warn("%v", NewOperationError("reload", app.cfg.Page.Path, err))
		app.host.SetStatus("reload failed")
		return
	}

	targets, sections, err := app.host.Load(p)
	if err != nil {
		app.logger.Warn("%v", NewOperationError("reload", app.cfg.Page.Path, err))
		app.host.SetStatus("reload failed")
		return
	}
	if err := app.engine.Update(targets, sections); err != nil {
		app.logger.Error("%v", NewOperationError("reload", app.cfg.Page.Path, err).WithContext("update"))
		return
	}
	app.logger.Info("reloaded %s: %d targets, %d sections", app.cfg.Page.Path, len(targets), len(sections))
}

func (app *Application) shutdownBackend() {
	if app.backend == nil {
		return
	}
	app.shutdownOnce.Do(app.backend.Shutdown)
}

func (app *Application) logSummary() {
	s := app.metrics.Snapshot()
	msg := "stopped after %s: %d draws (avg %.2fms), %d inputs, %d changes, %d reloads"
	args := []any{s.Uptime.Round(time.Millisecond), s.DrawCount, s.AvgDrawMs(), s.InputCount, s.ChangeCount, s.ReloadCount}
	if app.engine != nil {
		st := app.engine.Stats()
		msg += ", %d recomputes"
		args = append(args, st.Recomputes)
	}
	app.logger.Info(msg, args...)
}
