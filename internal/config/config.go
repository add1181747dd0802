package config

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/bandswap/internal/logging"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "bandswap.toml"

// Config holds every bandswap setting.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Loop    LoopConfig    `toml:"loop"`
	Page    PageConfig    `toml:"page"`
	Hook    HookConfig    `toml:"hook"`
	UI      UIConfig      `toml:"ui"`
	Trace   TraceConfig   `toml:"trace"`
	Browser BrowserConfig `toml:"browser"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"`
	// File receives log output. Empty means stderr, which the terminal
	// host owns while running, so run mode discards logs without a file.
	File string `toml:"file"`
}

// LoopConfig controls the frame loop.
type LoopConfig struct {
	FPS        int `toml:"fps"`
	PostBuffer int `toml:"postBuffer"`
}

// PageConfig locates the page description.
type PageConfig struct {
	Path       string `toml:"path"`
	Watch      bool   `toml:"watch"`
	DebounceMs int    `toml:"debounceMs"`
}

// HookConfig locates the optional Lua change hook.
type HookConfig struct {
	Script    string `toml:"script"`
	TimeoutMs int    `toml:"timeoutMs"`
}

// UIConfig controls the terminal host.
type UIConfig struct {
	ScrollStep int  `toml:"scrollStep"`
	StatusLine bool `toml:"statusLine"`
}

// TraceConfig controls headless trace runs.
type TraceConfig struct {
	Step float64 `toml:"step"`
	Rows int     `toml:"rows"`
	Cols int     `toml:"cols"`
}

// BrowserConfig controls the browser host.
type BrowserConfig struct {
	URL string `toml:"url"`
	// RemoteURL is a DevTools websocket of a running Chrome. Empty launches one.
	RemoteURL string `toml:"remoteUrl"`
	Headless  bool   `toml:"headless"`
	Stealth   bool   `toml:"stealth"`
	Bin       string `toml:"bin"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:  LogConfig{Level: "info"},
		Loop: LoopConfig{FPS: 60, PostBuffer: 256},
		Page: PageConfig{
			Path:       "page.yaml",
			Watch:      true,
			DebounceMs: 150,
		},
		Hook:    HookConfig{TimeoutMs: 50},
		UI:      UIConfig{ScrollStep: 1, StatusLine: true},
		Trace:   TraceConfig{Step: 1, Rows: 40, Cols: 80},
		Browser: BrowserConfig{Headless: true},
	}
}

// Load reads path (missing is fine) and BANDSWAP_* overrides.
func Load(path string) (*Config, error) {
	return LoadFrom(NewTOMLLoader(path), NewEnvLoader(EnvPrefix))
}

// LoadFrom merges the loaders in order over the defaults and validates
// the result.
func LoadFrom(loaders ...Loader) (*Config, error) {
	merged := make(map[string]any)
	for _, l := range loaders {
		m, err := l.Load()
		if err != nil {
			return nil, err
		}
		if m != nil {
			merged = DeepMerge(merged, m)
		}
	}

	cfg := Default()
	if len(merged) > 0 {
		data, err := toml.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("encoding merged config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and joins all failures.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, v any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
		}
	}

	check(logging.ValidLevel(c.Log.Level), "log.level", "unknown level", c.Log.Level)
	check(c.Loop.FPS >= 1 && c.Loop.FPS <= 240, "loop.fps", "must be between 1 and 240", c.Loop.FPS)
	check(c.Loop.PostBuffer >= 0, "loop.postBuffer", "must not be negative", c.Loop.PostBuffer)
	check(c.Page.DebounceMs >= 0, "page.debounceMs", "must not be negative", c.Page.DebounceMs)
	check(c.Hook.TimeoutMs >= 0, "hook.timeoutMs", "must not be negative", c.Hook.TimeoutMs)
	check(c.UI.ScrollStep > 0, "ui.scrollStep", "must be positive", c.UI.ScrollStep)
	check(c.Trace.Step > 0, "trace.step", "must be positive", c.Trace.Step)
	check(c.Trace.Rows > 1, "trace.rows", "must be at least 2", c.Trace.Rows)
	check(c.Trace.Cols > 0, "trace.cols", "must be positive", c.Trace.Cols)

	return errors.Join(errs...)
}

// LoggerConfig converts the log settings for logging.New.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Log.Level)
	return lc
}
