package scraper

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// NavigationConfig captures every knob of the page-preparation sequence. All
// values default to the production constants but can be overridden, down to
// zero jitter, so tests run deterministically.
type NavigationConfig struct {
	NavTimeout     time.Duration
	MinDelay       time.Duration
	MaxDelay       time.Duration
	ScrollStep     int
	ScrollInterval time.Duration
	ScrollCap      int
	Settle         time.Duration
}

func (c NavigationConfig) withDefaults() NavigationConfig {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.MinDelay <= 0 {
		c.MinDelay = 2 * time.Second
	}
	if c.MaxDelay < c.MinDelay {
		c.MaxDelay = c.MinDelay + 3*time.Second
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = 100
	}
	if c.ScrollInterval <= 0 {
		c.ScrollInterval = 100 * time.Millisecond
	}
	if c.ScrollCap <= 0 {
		c.ScrollCap = 3000
	}
	if c.Settle <= 0 {
		c.Settle = 3 * time.Second
	}
	return c
}

// Navigator brings a page to an extractable state: bounded navigation, a
// randomized pre-interaction delay, the auto-scroll loop that triggers lazy
// sections, and a final settle wait after scrolling back to the top.
type Navigator struct {
	cfg    NavigationConfig
	logger *zap.Logger
	pause  func(ctx context.Context, delay time.Duration)
	jitter func(min, max time.Duration) time.Duration
}

// NewNavigator creates a Navigator with the given configuration.
func NewNavigator(cfg NavigationConfig, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{
		cfg:    cfg.withDefaults(),
		logger: logger,
		pause:  timerPause,
		jitter: randomDelay,
	}
}

// Load runs the full preparation sequence against page. Every failure is
// reported as a NavigationError and aborts the job before extraction.
func (n *Navigator) Load(ctx context.Context, page Page, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, n.cfg.NavTimeout)
	defer cancel()

	if err := page.Navigate(navCtx, url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	delay := n.jitter(n.cfg.MinDelay, n.cfg.MaxDelay)
	n.logger.Debug("pre-interaction delay", zap.String("url", url), zap.Duration("delay", delay))
	n.pause(ctx, delay)
	if err := ctx.Err(); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	if err := n.autoScroll(ctx, page); err != nil {
		return &NavigationError{URL: url, Err: err}
	}

	if err := page.ScrollToTop(ctx); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	n.pause(ctx, n.cfg.Settle)
	if err := ctx.Err(); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}

// autoScroll steps the viewport down until the document bottom or the scroll
// cap is reached. The stepping is what makes lazy sections render.
func (n *Navigator) autoScroll(ctx context.Context, page Page) error {
	scrolled := 0
	for scrolled < n.cfg.ScrollCap {
		n.pause(ctx, n.cfg.ScrollInterval)
		if err := ctx.Err(); err != nil {
			return err
		}
		atBottom, err := page.ScrollBy(ctx, n.cfg.ScrollStep)
		if err != nil {
			return err
		}
		scrolled += n.cfg.ScrollStep
		if atBottom {
			break
		}
	}
	n.logger.Debug("auto-scroll finished", zap.Int("scrolled_px", scrolled))
	return nil
}

// timerPause blocks for delay or until the context finishes.
func timerPause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
