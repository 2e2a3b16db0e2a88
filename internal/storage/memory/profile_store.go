// Package memory provides an in-memory profile store for development and
// testing.
package memory

import (
	"context"
	"errors"
	"sync"

	"profilescraper/internal/scraper"
)

// ProfileStore keeps scrape records in a map guarded by a RWMutex.
type ProfileStore struct {
	mu      sync.RWMutex
	records map[string]scraper.ScrapeRecord
}

// NewProfileStore constructs a ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		records: make(map[string]scraper.ScrapeRecord),
	}
}

// CreateScrape stores a new record; the ID must be unused.
func (s *ProfileStore) CreateScrape(_ context.Context, rec scraper.ScrapeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return errors.New("scrape already exists")
	}
	s.records[rec.ID] = rec
	return nil
}

// UpdateScrape replaces the stored record for rec.ID.
func (s *ProfileStore) UpdateScrape(_ context.Context, rec scraper.ScrapeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; !exists {
		return scraper.ErrScrapeNotFound
	}
	s.records[rec.ID] = rec
	return nil
}

// GetScrape returns the record for id.
func (s *ProfileStore) GetScrape(_ context.Context, id string) (scraper.ScrapeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return scraper.ScrapeRecord{}, scraper.ErrScrapeNotFound
	}
	return rec, nil
}

var _ scraper.ProfileStore = (*ProfileStore)(nil)
