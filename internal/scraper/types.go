package scraper

import "time"

// ScrapedProfile is the structured record produced by one successful scrape.
// Single-value fields are nil when no selector candidate matched; multi-value
// fields are deduplicated, keep discovery order, and are never nil, so they
// serialize as JSON arrays even when empty.
type ScrapedProfile struct {
	Name              *string  `json:"name"`
	Title             *string  `json:"title"`
	Location          *string  `json:"location"`
	Skills            []string `json:"skills"`
	Certifications    []string `json:"certifications"`
	Companies         []string `json:"companies"`
	Education         []string `json:"education"`
	ProfilePictureURL *string  `json:"profilePictureUrl"`
	Connections       *string  `json:"connections"`
}

// ScrapeStatus represents the lifecycle state of a scrape request.
type ScrapeStatus string

// Scrape status values persisted in the profile store.
const (
	ScrapeStatusQueued    ScrapeStatus = "queued"
	ScrapeStatusRunning   ScrapeStatus = "running"
	ScrapeStatusSucceeded ScrapeStatus = "succeeded"
	ScrapeStatusFailed    ScrapeStatus = "failed"
)

// ScrapeRecord is the metadata persisted for each submitted scrape request.
// The engine itself never writes partial profiles: Profile is nil until the
// job succeeds, at which point the full snapshot is stored in one update.
type ScrapeRecord struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	Status      ScrapeStatus    `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	Finished    *time.Time      `json:"finished_at,omitempty"`
	ErrorText   string          `json:"error_text,omitempty"`
	Profile     *ScrapedProfile `json:"profile,omitempty"`
}
