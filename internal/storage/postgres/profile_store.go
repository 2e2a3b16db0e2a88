// Package postgres provides a Postgres-backed profile store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"profilescraper/internal/scraper"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProfileStoreConfig controls the Postgres connection pool.
type ProfileStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ProfileStore writes scrape records into Postgres. The full profile snapshot
// is stored as one jsonb column so a record is never partially persisted.
type ProfileStore struct {
	pool  pool
	table string
}

// NewProfileStore creates a Postgres-backed ProfileStore using the provided
// config.
func NewProfileStore(ctx context.Context, cfg ProfileStoreConfig) (*ProfileStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return NewProfileStoreWithPool(p, cfg.Table)
}

// NewProfileStoreWithPool wires an existing pool; tests inject pgxmock here.
func NewProfileStoreWithPool(p pool, table string) (*ProfileStore, error) {
	if table == "" {
		table = "scrapes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProfileStore{pool: p, table: table}, nil
}

// Close releases the connection pool.
func (s *ProfileStore) Close() {
	s.pool.Close()
}

// CreateScrape inserts a new scrape row.
func (s *ProfileStore) CreateScrape(ctx context.Context, rec scraper.ScrapeRecord) error {
	profile, err := marshalProfile(rec.Profile)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, url, status, requested_at, finished_at, error_text, profile)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.table,
	)
	if _, err := s.pool.Exec(ctx, query,
		rec.ID, rec.URL, string(rec.Status), rec.RequestedAt, rec.Finished, rec.ErrorText, profile,
	); err != nil {
		return fmt.Errorf("insert scrape: %w", err)
	}
	return nil
}

// UpdateScrape updates status, finish time, error text and the profile
// snapshot for rec.ID.
func (s *ProfileStore) UpdateScrape(ctx context.Context, rec scraper.ScrapeRecord) error {
	profile, err := marshalProfile(rec.Profile)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`UPDATE %s SET status = $2, finished_at = $3, error_text = $4, profile = $5 WHERE id = $1`,
		s.table,
	)
	tag, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Status), rec.Finished, rec.ErrorText, profile,
	)
	if err != nil {
		return fmt.Errorf("update scrape: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scraper.ErrScrapeNotFound
	}
	return nil
}

// GetScrape loads the record for id.
func (s *ProfileStore) GetScrape(ctx context.Context, id string) (scraper.ScrapeRecord, error) {
	query := fmt.Sprintf(
		`SELECT id, url, status, requested_at, finished_at, error_text, profile FROM %s WHERE id = $1`,
		s.table,
	)
	var (
		rec     scraper.ScrapeRecord
		status  string
		profile []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.URL, &status, &rec.RequestedAt, &rec.Finished, &rec.ErrorText, &profile,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return scraper.ScrapeRecord{}, scraper.ErrScrapeNotFound
	}
	if err != nil {
		return scraper.ScrapeRecord{}, fmt.Errorf("select scrape: %w", err)
	}
	rec.Status = scraper.ScrapeStatus(status)
	if len(profile) > 0 {
		var p scraper.ScrapedProfile
		if err := json.Unmarshal(profile, &p); err != nil {
			return scraper.ScrapeRecord{}, fmt.Errorf("decode profile: %w", err)
		}
		rec.Profile = &p
	}
	return rec, nil
}

func marshalProfile(p *scraper.ScrapedProfile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}

var _ scraper.ProfileStore = (*ProfileStore)(nil)
