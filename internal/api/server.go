package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"profilescraper/internal/config"
	"profilescraper/internal/dom"
	"profilescraper/internal/metrics"
	"profilescraper/internal/scheduler"
	"profilescraper/internal/scraper"
)

// Engine is the queued scrape engine the server submits jobs to. The
// scheduler satisfies it; the returned handle reports dispatch and
// settlement so record status can track the job's actual lifecycle.
type Engine interface {
	Enqueue(profileURL string) *scheduler.Pending
}

// Server wires HTTP handlers to the scheduler, extractor, and profile store.
type Server struct {
	router    chi.Router
	store     scraper.ProfileStore
	engine    Engine
	extractor *scraper.Extractor
	idGen     scraper.IDGenerator
	clock     scraper.Clock
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	store scraper.ProfileStore,
	engine Engine,
	extractor *scraper.Extractor,
	idGen scraper.IDGenerator,
	clock scraper.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:     store,
		engine:    engine,
		extractor: extractor,
		idGen:     idGen,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scrapes", s.submitScrape)
		r.Get("/scrapes/{scrape_id}", s.getScrape)
		r.Post("/extract", s.extractFromHTML)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type extractRequest struct {
	HTML string `json:"html"`
}

func (s *Server) submitScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateProfileURL(req.URL); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.idGen.NewID()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "generate scrape id failed")
		return
	}
	rec := scraper.ScrapeRecord{
		ID:          id,
		URL:         req.URL,
		Status:      scraper.ScrapeStatusQueued,
		RequestedAt: s.clock.Now(),
	}
	if err := s.store.CreateScrape(r.Context(), rec); err != nil {
		s.writeError(w, http.StatusInternalServerError, "persist scrape failed")
		return
	}

	// Enqueue never blocks; the job settles in the background and its
	// outcome lands in the store. Callers poll GET /v1/scrapes/{id}.
	go s.runScrape(rec)

	s.writeJSON(w, http.StatusAccepted, map[string]string{"scrape_id": id})
}

// runScrape drives one job to settlement and records the outcome. It uses a
// background context: the HTTP request that enqueued the job is long gone by
// the time the scheduler dispatches it. The record stays queued while the
// job waits in the scheduler and flips to running only at dispatch.
func (s *Server) runScrape(rec scraper.ScrapeRecord) {
	ctx := context.Background()
	pending := s.engine.Enqueue(rec.URL)

	select {
	case <-pending.Started():
		rec.Status = scraper.ScrapeStatusRunning
		if err := s.store.UpdateScrape(ctx, rec); err != nil {
			s.logger.Error("mark scrape running failed", zap.String("scrape_id", rec.ID), zap.Error(err))
		}
	case <-pending.Done():
		// Settled without dispatching (scheduler shutdown); record the
		// outcome below without ever reporting the job as running.
	}

	profile, err := pending.Wait(ctx)
	now := s.clock.Now()
	rec.Finished = &now
	if err != nil {
		rec.Status = scraper.ScrapeStatusFailed
		rec.ErrorText = err.Error()
	} else {
		rec.Status = scraper.ScrapeStatusSucceeded
		rec.Profile = &profile
	}
	if err := s.store.UpdateScrape(ctx, rec); err != nil {
		s.logger.Error("record scrape outcome failed", zap.String("scrape_id", rec.ID), zap.Error(err))
	}
}

func (s *Server) getScrape(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scrape_id")
	rec, err := s.store.GetScrape(r.Context(), id)
	if errors.Is(err, scraper.ErrScrapeNotFound) {
		s.writeError(w, http.StatusNotFound, "scrape not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "fetch scrape failed")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// extractFromHTML runs the extraction rule set over caller-supplied HTML
// without a browser. Useful for reprocessing saved snapshots with updated
// selector chains.
func (s *Server) extractFromHTML(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.HTML == "" {
		s.writeError(w, http.StatusBadRequest, "html required")
		return
	}
	doc, err := dom.Parse(req.HTML)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unparseable html")
		return
	}
	profile, err := s.extractor.ExtractAll(r.Context(), doc)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func validateProfileURL(raw string) error {
	if raw == "" {
		return errors.New("url required")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return errors.New("url must be absolute")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	return nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, strconv.Itoa(ww.status))
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key != expected {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
