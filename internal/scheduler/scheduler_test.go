package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"profilescraper/internal/scraper"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// recordingEngine records dispatch order and fails URLs containing "fail".
type recordingEngine struct {
	mu    sync.Mutex
	order []string
}

func (e *recordingEngine) ScrapeProfile(_ context.Context, profileURL string) (scraper.ScrapedProfile, error) {
	e.mu.Lock()
	e.order = append(e.order, profileURL)
	e.mu.Unlock()
	if strings.Contains(profileURL, "fail") {
		return scraper.ScrapedProfile{}, errors.New("engine rejected " + profileURL)
	}
	name := profileURL
	return scraper.ScrapedProfile{Name: &name}, nil
}

func (e *recordingEngine) dispatched() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...)
}

// pauseRecorder captures cooldown waits instead of sleeping through them.
type pauseRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *pauseRecorder) pause(_ context.Context, delay time.Duration) {
	r.mu.Lock()
	r.delays = append(r.delays, delay)
	r.mu.Unlock()
}

func (r *pauseRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// newTestScheduler swaps the cooldown sleep for a recorder so tests finish
// instantly while still observing the spacing the scheduler asked for.
func newTestScheduler(engine Engine, rpm int) (*Scheduler, *pauseRecorder) {
	s := New(engine, Config{RequestsPerMinute: rpm}, fixedClock{t: time.Unix(1700000000, 0)}, zap.NewNop())
	rec := &pauseRecorder{}
	s.pause = rec.pause
	return s, rec
}

func TestSchedulerRunsJobsInEnqueueOrder(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{}
	s, _ := newTestScheduler(engine, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := s.Enqueue("https://example.com/in/a")
	second := s.Enqueue("https://example.com/in/b")
	third := s.Enqueue("https://example.com/in/c")

	go s.Run(ctx)

	for _, p := range []*Pending{first, second, third} {
		_, err := p.Wait(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"https://example.com/in/a",
		"https://example.com/in/b",
		"https://example.com/in/c",
	}, engine.dispatched())
}

func TestSchedulerCooldownFromRate(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{}
	s, cooldowns := newTestScheduler(engine, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := s.Enqueue("https://example.com/in/a")
	b := s.Enqueue("https://example.com/in/b")
	go s.Run(ctx)

	_, err := a.Wait(context.Background())
	require.NoError(t, err)
	_, err = b.Wait(context.Background())
	require.NoError(t, err)

	// Two requests per minute means thirty seconds between settlements.
	delays := cooldowns.recorded()
	require.NotEmpty(t, delays)
	assert.Equal(t, 30*time.Second, delays[0])
}

func TestSchedulerRateBelowOneCollapsesToOne(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(&recordingEngine{}, 0)
	assert.Equal(t, time.Minute, s.cooldown)
}

func TestSchedulerEnqueueNeverBlocks(t *testing.T) {
	t.Parallel()

	// No consumer is running; every Enqueue must still return immediately.
	s, _ := newTestScheduler(&recordingEngine{}, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Enqueue("https://example.com/in/x")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked without a running consumer")
	}
}

func TestSchedulerFailedJobDoesNotPoisonQueue(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{}
	s, _ := newTestScheduler(engine, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bad := s.Enqueue("https://example.com/in/fail")
	good := s.Enqueue("https://example.com/in/ok")
	go s.Run(ctx)

	_, err := bad.Wait(context.Background())
	require.Error(t, err)

	profile, err := good.Wait(context.Background())
	require.NoError(t, err, "a failure settles its own handle only")
	require.NotNil(t, profile.Name)
	assert.Equal(t, "https://example.com/in/ok", *profile.Name)
}

func TestSchedulerDistinctHandlesPerEnqueue(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(&recordingEngine{}, 60)
	a := s.Enqueue("https://example.com/in/same")
	b := s.Enqueue("https://example.com/in/same")
	assert.NotSame(t, a, b)
}

// cancelingEngine stops the scheduler from inside its first job, leaving the
// rest of the queue to be drained on shutdown.
type cancelingEngine struct {
	cancel context.CancelFunc
}

func (e *cancelingEngine) ScrapeProfile(context.Context, string) (scraper.ScrapedProfile, error) {
	e.cancel()
	return scraper.ScrapedProfile{}, nil
}

func TestSchedulerShutdownSettlesQueuedJobs(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newTestScheduler(&cancelingEngine{cancel: cancel}, 60)

	first := s.Enqueue("https://example.com/in/first")
	queued := s.Enqueue("https://example.com/in/queued")
	s.Run(ctx)

	_, err := first.Wait(context.Background())
	require.NoError(t, err, "the in-flight job settles normally")

	_, err = queued.Wait(context.Background())
	require.Error(t, err)
	var scrapeErr *scraper.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-queued.Started():
		t.Fatal("a drained job must never report as dispatched")
	default:
	}
	select {
	case <-queued.Done():
	case <-time.After(time.Second):
		t.Fatal("a drained job must still close its Done signal")
	}
}

func TestSchedulerEnqueueAfterShutdownSettlesImmediately(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(&recordingEngine{}, 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	late := s.Enqueue("https://example.com/in/late")
	_, err := late.Wait(context.Background())
	require.Error(t, err)
	var scrapeErr *scraper.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-late.Done():
	default:
		t.Fatal("a post-shutdown handle must settle immediately")
	}
}

func TestPendingStartedClosesAtDispatch(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{}
	s, _ := newTestScheduler(engine, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := s.Enqueue("https://example.com/in/jane")
	select {
	case <-p.Started():
		t.Fatal("job must not report as dispatched before the consumer runs")
	default:
	}

	go s.Run(ctx)

	select {
	case <-p.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("Started never closed after dispatch")
	}
	_, err := p.Wait(context.Background())
	require.NoError(t, err)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done must be closed once the job settled")
	}
}

func TestSchedulerInstancesAreIndependent(t *testing.T) {
	t.Parallel()

	engineA := &recordingEngine{}
	engineB := &recordingEngine{}
	a, _ := newTestScheduler(engineA, 60)
	b, _ := newTestScheduler(engineB, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Run(ctx)
	go b.Run(ctx)

	pa := a.Enqueue("https://example.com/in/a")
	pb := b.Enqueue("https://example.com/in/b")
	_, err := pa.Wait(context.Background())
	require.NoError(t, err)
	_, err = pb.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/in/a"}, engineA.dispatched())
	assert.Equal(t, []string{"https://example.com/in/b"}, engineB.dispatched())
}

func TestSchedulerScrapeProfileDelegates(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{}
	s, _ := newTestScheduler(engine, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	profile, err := s.ScrapeProfile(context.Background(), "https://example.com/in/direct")
	require.NoError(t, err)
	require.NotNil(t, profile.Name)
	assert.Equal(t, "https://example.com/in/direct", *profile.Name)
}
