package scraper

import (
	"context"
	"time"
)

// DocumentQuerier runs CSS selector queries against a rendered document.
// An empty attr requests the element's text content; a non-empty attr
// requests that attribute's value. Implementations return an error only
// when the query mechanism itself cannot execute, never for zero matches.
type DocumentQuerier interface {
	QueryOne(ctx context.Context, selector, attr string) (value string, found bool, err error)
	QueryAll(ctx context.Context, selector, attr string) ([]string, error)
}

// Page is one isolated browser session positioned on (at most) one document.
// The navigation policy drives it step by step; Close terminates the backing
// browser process and must be called exactly once per acquired page.
type Page interface {
	Navigate(ctx context.Context, url string) error
	ScrollBy(ctx context.Context, px int) (atBottom bool, err error)
	ScrollToTop(ctx context.Context) error
	Document() DocumentQuerier
	Close() error
}

// SessionManager launches isolated browser sessions, one per scrape job.
type SessionManager interface {
	Acquire(ctx context.Context) (Page, error)
}

// ProfileStore persists scrape request metadata and results.
type ProfileStore interface {
	CreateScrape(ctx context.Context, rec ScrapeRecord) error
	UpdateScrape(ctx context.Context, rec ScrapeRecord) error
	GetScrape(ctx context.Context, id string) (ScrapeRecord, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces scrape IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
