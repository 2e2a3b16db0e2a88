package scraper

import (
	"errors"
	"fmt"
)

// ErrScrapeNotFound is returned by profile stores when no record exists for
// the requested scrape ID.
var ErrScrapeNotFound = errors.New("scrape not found")

// LaunchError indicates the browser process failed to start. Fatal for the
// job; the engine never retries internally.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch browser session: %v", e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError indicates the page failed to reach an extractable state,
// either through a navigation timeout or a network failure. No extraction is
// attempted after it.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionError indicates the in-page query mechanism failed to execute,
// for example because the session was torn down mid-evaluation. A selector
// with zero matches is not an ExtractionError; absent fields resolve to
// nil/empty values.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract profile fields: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ScrapeError is the single error type surfaced by the orchestrator. It wraps
// the originating launch, navigation, or extraction failure after the browser
// session has been released.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape profile %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
