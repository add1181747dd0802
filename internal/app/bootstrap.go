package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/bandswap/internal/config"
	"github.com/dshills/bandswap/internal/hook"
	"github.com/dshills/bandswap/internal/logging"
	"github.com/dshills/bandswap/internal/notify"
	"github.com/dshills/bandswap/internal/schedule"
)

// bootstrap initializes all components in dependency order. New cleans up
// whatever came up when a later step fails.
func (app *Application) bootstrap() error {
	// 1. Config - file, environment, then command-line overrides
	if err := app.initConfig(); err != nil {
		return err
	}

	// 2. Logger
	if err := app.initLogger(); err != nil {
		return err
	}

	// 3. Hook
	if err := app.initHook(); err != nil {
		return err
	}

	// 4. Loop and change fan-out
	app.loop = schedule.NewLoop(
		schedule.WithFPS(app.cfg.Loop.FPS),
		schedule.WithPostBuffer(app.cfg.Loop.PostBuffer),
		schedule.WithPanicHandler(app.recoverPanic),
	)
	app.notifier = notify.New()
	app.notifier.Subscribe(app.onChange)

	app.logger.Debug("bootstrapped: fps=%d page=%s hook=%q", app.cfg.Loop.FPS, app.cfg.Page.Path, app.cfg.Hook.Script)
	return nil
}

func (app *Application) initConfig() error {
	path := app.opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	} else if _, err := os.Stat(path); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}

	if app.opts.PagePath != "" {
		cfg.Page.Path = app.opts.PagePath
	}
	if app.opts.HookPath != "" {
		cfg.Hook.Script = app.opts.HookPath
	}
	if lvl := app.opts.LogLevel; lvl != "" {
		if !logging.ValidLevel(lvl) {
			return &InitError{Component: "config", Err: fmt.Errorf("%w: log level %q", ErrInvalidOption, lvl)}
		}
		cfg.Log.Level = lvl
	}
	if app.opts.TraceStep < 0 {
		return &InitError{Component: "config", Err: fmt.Errorf("%w: step %v", ErrInvalidOption, app.opts.TraceStep)}
	}
	if app.opts.TraceStep > 0 {
		cfg.Trace.Step = app.opts.TraceStep
	}
	if app.opts.URL != "" {
		cfg.Browser.URL = app.opts.URL
	}
	if app.opts.Headed {
		cfg.Browser.Headless = false
	}
	if app.opts.Stealth {
		cfg.Browser.Stealth = true
	}

	app.cfg = cfg
	return nil
}

func (app *Application) initLogger() error {
	lc := app.cfg.LoggerConfig()

	switch {
	case app.opts.LogOutput != nil:
		lc.Output = app.opts.LogOutput
	case app.cfg.Log.File != "":
		f, err := os.OpenFile(app.cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return &InitError{Component: "logger", Err: err}
		}
		app.logFile = f
		lc.Output = f
	case app.opts.Interactive:
		lc.Output = io.Discard
	}

	app.logger = logging.New(lc)
	return nil
}

func (app *Application) initHook() error {
	script := app.cfg.Hook.Script
	if script == "" {
		return nil
	}

	h, err := hook.Load(script,
		hook.WithTimeout(time.Duration(app.cfg.Hook.TimeoutMs)*time.Millisecond),
		hook.WithLogger(app.logger),
	)
	if err != nil {
		return &InitError{Component: "hook", Err: err}
	}
	app.hook = h
	app.logger.Info("loaded hook %s", script)
	return nil
}
