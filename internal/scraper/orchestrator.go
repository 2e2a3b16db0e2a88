package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"profilescraper/internal/metrics"
)

// Orchestrator composes the public ScrapeProfile operation: acquire an
// isolated session, prepare the page, extract every field, and release the
// session on every exit path.
type Orchestrator struct {
	sessions  SessionManager
	navigator *Navigator
	extractor *Extractor
	logger    *zap.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(sessions SessionManager, navigator *Navigator, extractor *Extractor, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		sessions:  sessions,
		navigator: navigator,
		extractor: extractor,
		logger:    logger,
	}
}

// ScrapeProfile scrapes one profile URL. Either the full ScrapedProfile is
// returned or the job fails with a ScrapeError wrapping the originating
// launch, navigation, or extraction failure; partial records never escape.
// The session is released exactly once before any error propagates.
func (o *Orchestrator) ScrapeProfile(ctx context.Context, profileURL string) (ScrapedProfile, error) {
	start := time.Now()

	page, err := o.sessions.Acquire(ctx)
	if err != nil {
		metrics.ObserveScrape("launch_failed", time.Since(start))
		return ScrapedProfile{}, &ScrapeError{URL: profileURL, Err: err}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			o.logger.Warn("session close failed", zap.String("url", profileURL), zap.Error(closeErr))
		}
	}()

	if err := o.navigator.Load(ctx, page, profileURL); err != nil {
		o.logger.Warn("navigation failed", zap.String("url", profileURL), zap.Error(err))
		metrics.ObserveScrape("navigation_failed", time.Since(start))
		return ScrapedProfile{}, &ScrapeError{URL: profileURL, Err: err}
	}

	profile, err := o.extractor.ExtractAll(ctx, page.Document())
	if err != nil {
		o.logger.Warn("extraction failed", zap.String("url", profileURL), zap.Error(err))
		metrics.ObserveScrape("extraction_failed", time.Since(start))
		return ScrapedProfile{}, &ScrapeError{URL: profileURL, Err: err}
	}

	o.logger.Info("profile scraped",
		zap.String("url", profileURL),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("name_found", profile.Name != nil),
	)
	metrics.ObserveScrape("succeeded", time.Since(start))
	return profile, nil
}
