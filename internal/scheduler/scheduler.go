// Package scheduler serializes scrape jobs behind a throughput-bounded FIFO
// queue. Exactly one job runs at a time per Scheduler instance; after each
// job settles, the scheduler waits a fixed cooldown before dequeuing the
// next, guaranteeing minimum inter-job spacing regardless of job duration.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"profilescraper/internal/metrics"
	"profilescraper/internal/scraper"
)

// Engine is the operation the scheduler throttles.
type Engine interface {
	ScrapeProfile(ctx context.Context, profileURL string) (scraper.ScrapedProfile, error)
}

// Config controls Scheduler behavior.
type Config struct {
	RequestsPerMinute int
}

type outcome struct {
	profile scraper.ScrapedProfile
	err     error
}

// Pending is the result handle returned by Enqueue. Each call gets a
// distinct handle; the job's success or failure is observed only through it.
type Pending struct {
	URL        string
	EnqueuedAt time.Time
	ch         chan outcome
	started    chan struct{}
	done       chan struct{}
}

// Wait blocks until the job settles or the context finishes.
func (p *Pending) Wait(ctx context.Context) (scraper.ScrapedProfile, error) {
	select {
	case <-ctx.Done():
		return scraper.ScrapedProfile{}, ctx.Err()
	case out := <-p.ch:
		return out.profile, out.err
	}
}

// Started is closed when the scheduler dispatches the job. A job drained on
// shutdown settles without Started ever closing.
func (p *Pending) Started() <-chan struct{} {
	return p.started
}

// Done is closed once the job has settled, whether it ran or was drained.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

func (p *Pending) start() {
	close(p.started)
}

func (p *Pending) settle(out outcome) {
	// Buffered channel; the handle settles exactly once.
	p.ch <- out
	close(p.done)
}

// Scheduler owns its queue and in-flight state; independent instances share
// nothing and may run concurrently with separate rate budgets.
type Scheduler struct {
	engine   Engine
	cooldown time.Duration
	clock    scraper.Clock
	logger   *zap.Logger
	pause    func(ctx context.Context, delay time.Duration)

	mu       sync.Mutex
	queue    []*Pending
	closed   bool
	closeErr error
	wake     chan struct{}
}

// New creates a Scheduler dispatching at most requestsPerMinute jobs per
// minute. Rates below one request per minute collapse to one.
func New(engine Engine, cfg Config, clock scraper.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 1
	}
	return &Scheduler{
		engine:   engine,
		cooldown: time.Duration(int64(time.Minute) / int64(rpm)),
		clock:    clock,
		logger:   logger,
		pause:    timerPause,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue appends a job to the FIFO queue and returns its result handle.
// It never blocks the caller. After the scheduler has shut down, the handle
// settles immediately with a ScrapeError instead of waiting forever.
func (s *Scheduler) Enqueue(profileURL string) *Pending {
	p := &Pending{
		URL:        profileURL,
		EnqueuedAt: s.clock.Now(),
		ch:         make(chan outcome, 1),
		started:    make(chan struct{}),
		done:       make(chan struct{}),
	}
	s.mu.Lock()
	if s.closed {
		err := s.closeErr
		s.mu.Unlock()
		p.settle(outcome{err: &scraper.ScrapeError{URL: profileURL, Err: err}})
		return p
	}
	s.queue = append(s.queue, p)
	depth := len(s.queue)
	s.mu.Unlock()
	metrics.SetQueueDepth(depth)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return p
}

// ScrapeProfile enqueues the URL and waits for the outcome, giving callers
// the same signature as the unthrottled engine.
func (s *Scheduler) ScrapeProfile(ctx context.Context, profileURL string) (scraper.ScrapedProfile, error) {
	return s.Enqueue(profileURL).Wait(ctx)
}

// Run consumes the queue until the context finishes. Jobs execute strictly
// in enqueue order; a failing job settles its handle and never poisons the
// scheduler. On shutdown the remaining queued handles settle with the
// context's error so no caller waits forever.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		p, ok := s.next(ctx)
		if !ok {
			s.drain(ctx.Err())
			return
		}

		s.logger.Debug("dispatching job",
			zap.String("url", p.URL),
			zap.Duration("queued_for", s.clock.Now().Sub(p.EnqueuedAt)),
		)
		p.start()
		profile, err := s.engine.ScrapeProfile(ctx, p.URL)
		p.settle(outcome{profile: profile, err: err})
		if err != nil {
			s.logger.Warn("job failed", zap.String("url", p.URL), zap.Error(err))
		}

		// Cooldown is measured from settlement, not dispatch, so inter-job
		// spacing holds even when job durations vary wildly.
		metrics.ObserveCooldown()
		s.pause(ctx, s.cooldown)
		if ctx.Err() != nil {
			s.drain(ctx.Err())
			return
		}
	}
}

func (s *Scheduler) next(ctx context.Context) (*Pending, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			p := s.queue[0]
			s.queue = s.queue[1:]
			depth := len(s.queue)
			s.mu.Unlock()
			metrics.SetQueueDepth(depth)
			return p, true
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-s.wake:
		}
	}
}

// drain settles the remaining queue and marks the scheduler closed so later
// Enqueue calls fail fast instead of stranding their handles.
func (s *Scheduler) drain(err error) {
	if err == nil {
		err = context.Canceled
	}
	s.mu.Lock()
	rest := s.queue
	s.queue = nil
	s.closed = true
	s.closeErr = err
	s.mu.Unlock()
	metrics.SetQueueDepth(0)
	for _, p := range rest {
		p.settle(outcome{err: &scraper.ScrapeError{URL: p.URL, Err: err}})
	}
}

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
