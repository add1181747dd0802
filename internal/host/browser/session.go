// Package browser is the browser host: it drives a real page over the
// Chrome DevTools protocol with go-rod. Element geometry comes from
// getBoundingClientRect, clips are written to style.clipPath, and scroll,
// resize and ResizeObserver callbacks reach Go through a runtime binding.
//
// Markup contract:
//
//	<header data-bandswap-band>
//	  <div data-bandswap-variant="light" data-bandswap-default>...</div>
//	  <div data-bandswap-variant="dark">...</div>
//	  <div data-bandswap-variant="badge" data-bandswap-geometry="own">...</div>
//	</header>
//	<section data-bandswap-section="dark">...</section>
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/dshills/bandswap/internal/logging"
)

// ErrNoURL is returned by Open without a URL.
var ErrNoURL = errors.New("browser: no url")

// Config configures a browser session.
type Config struct {
	URL string

	// RemoteURL connects to a running Chrome instead of launching one.
	RemoteURL string

	// Bin overrides the Chrome binary.
	Bin string

	Headless bool

	// Stealth opens the page with anti-automation patches applied.
	Stealth bool

	// NavigateTimeout bounds navigation. Default 30s.
	NavigateTimeout time.Duration

	Logger *logging.Logger
}

// Session is a connected browser with one open page.
type Session struct {
	Browser *rod.Browser
	Page    *rod.Page

	lnch   *launcher.Launcher
	logger *logging.Logger
}

// Open launches or connects to Chrome, opens a tab and navigates to
// cfg.URL.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Null()
	}
	logger = logger.WithComponent("browser")

	s := &Session{logger: logger}

	wsURL := cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		logger.Info("launched chrome at %s", wsURL)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.Browser = b

	var (
		page *rod.Page
		err  error
	)
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	s.Page = page

	navCtx, cancel := context.WithTimeout(ctx, cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(cfg.URL); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", cfg.URL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("wait load for %s: %v", cfg.URL, err)
	}
	return s, nil
}

// Close closes the page, the browser connection and any launched process.
func (s *Session) Close() error {
	var errs []error
	if s.Page != nil {
		errs = append(errs, s.Page.Close())
		s.Page = nil
	}
	if s.Browser != nil {
		errs = append(errs, s.Browser.Close())
		s.Browser = nil
	}
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return errors.Join(errs...)
}
