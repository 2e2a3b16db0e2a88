// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal           *prometheus.CounterVec
	scrapeDurationSeconds  prometheus.Histogram
	schedulerQueueDepth    prometheus.Gauge
	schedulerCooldownTotal prometheus.Counter
	httpRequestsTotal      *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_jobs_total",
				Help: "Total number of scrape jobs processed, labeled by status.",
			},
			[]string{"status"},
		)

		scrapeDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_job_duration_seconds",
				Help:    "Histogram of end-to-end scrape job durations.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
		)

		schedulerQueueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_scheduler_queue_depth",
				Help: "Number of jobs waiting in the scheduler queue.",
			},
		)

		schedulerCooldownTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_scheduler_cooldowns_total",
				Help: "Total number of post-settlement cooldown waits.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one settled scrape job.
func ObserveScrape(status string, duration time.Duration) {
	if scrapesTotal == nil {
		return
	}
	scrapesTotal.WithLabelValues(status).Inc()
	scrapeDurationSeconds.Observe(duration.Seconds())
}

// SetQueueDepth records the current scheduler queue depth.
func SetQueueDepth(depth int) {
	if schedulerQueueDepth == nil {
		return
	}
	schedulerQueueDepth.Set(float64(depth))
}

// ObserveCooldown counts one scheduler cooldown wait.
func ObserveCooldown() {
	if schedulerCooldownTotal == nil {
		return
	}
	schedulerCooldownTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request counter.
func ObserveHTTPRequest(method, code string) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, code).Inc()
}
