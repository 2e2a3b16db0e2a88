package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"profilescraper/internal/scraper"
)

// Resource types aborted at the fetch-interception layer. Markup, script and
// XHR traffic must continue for dynamic rendering to work.
var blockedResourceTypes = map[network.ResourceType]struct{}{
	network.ResourceTypeImage:      {},
	network.ResourceTypeStylesheet: {},
	network.ResourceTypeFont:       {},
	network.ResourceTypeMedia:      {},
}

// Config controls the behavior of launched browser sessions.
type Config struct {
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	// HostQPS paces navigations per target host across sessions; zero
	// disables the budget.
	HostQPS float64
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1366
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 900
	}
	return c
}

// Manager launches one isolated Chrome process per acquired session.
type Manager struct {
	cfg          Config
	logger       *zap.Logger
	hostLimiters sync.Map
}

// NewManager creates a session manager using the provided configuration.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg.withDefaults(), logger: logger}
}

// Acquire launches a fresh browser process configured with the fixed
// viewport, user-agent override, and the resource-blocking policy. A failed
// launch yields a LaunchError; a returned session must be closed exactly
// once by the caller.
func (m *Manager) Acquire(ctx context.Context) (scraper.Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(m.cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	session := &Session{
		manager:     m,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		logger:      m.logger,
	}

	warmup := chromedp.Tasks{
		network.Enable(),
		fetch.Enable(),
		emulation.SetUserAgentOverride(m.cfg.UserAgent),
		emulation.SetDeviceMetricsOverride(int64(m.cfg.ViewportWidth), int64(m.cfg.ViewportHeight), 1, false),
	}
	if err := runWithParent(ctx, tabCtx, warmup); err != nil {
		session.close()
		return nil, &scraper.LaunchError{Err: err}
	}

	session.interceptRequests()
	return session, nil
}

func (m *Manager) waitHostBudget(ctx context.Context, rawURL string) error {
	if m.cfg.HostQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := m.hostLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(m.cfg.HostQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait host budget: %w", err)
	}
	return nil
}

// Session is one live browser process. It implements scraper.Page.
type Session struct {
	manager     *Manager
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	closeOnce   sync.Once
}

// interceptRequests aborts blocked resource types and continues the rest.
// Responses go through the target's executor, off the event goroutine.
func (s *Session) interceptRequests() {
	target := chromedp.FromContext(s.tabCtx).Target
	chromedp.ListenTarget(s.tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			execCtx := cdp.WithExecutor(s.tabCtx, target)
			if _, blocked := blockedResourceTypes[paused.ResourceType]; blocked {
				if err := fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx); err != nil {
					s.logger.Debug("fail request", zap.Error(err))
				}
				return
			}
			if err := fetch.ContinueRequest(paused.RequestID).Do(execCtx); err != nil {
				s.logger.Debug("continue request", zap.Error(err))
			}
		}()
	})
}

// Navigate loads the URL, waiting only for initial DOM construction. Full
// network idle is deliberately not awaited; long-lived connections are
// common on dynamic pages and would stall an idle wait indefinitely. The
// caller bounds the wait through ctx.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if err := s.manager.waitHostBudget(ctx, rawURL); err != nil {
		return err
	}
	return s.run(ctx, chromedp.Tasks{
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	})
}

// ScrollBy scrolls the viewport down by px and reports whether the document
// bottom has been reached.
func (s *Session) ScrollBy(ctx context.Context, px int) (bool, error) {
	script := fmt.Sprintf(
		`(() => { window.scrollBy(0, %d); return (window.innerHeight + window.scrollY) >= document.body.scrollHeight; })()`,
		px,
	)
	var atBottom bool
	if err := s.run(ctx, chromedp.Tasks{chromedp.Evaluate(script, &atBottom)}); err != nil {
		return false, err
	}
	return atBottom, nil
}

// ScrollToTop returns the viewport to the top of the document.
func (s *Session) ScrollToTop(ctx context.Context) error {
	return s.run(ctx, chromedp.Tasks{chromedp.Evaluate(`window.scrollTo(0, 0)`, nil)})
}

// Document returns a querier evaluating selectors inside the live page.
func (s *Session) Document() scraper.DocumentQuerier {
	return &pageQuerier{session: s}
}

// Close terminates the browser process. Safe to call once per session; the
// orchestrator guarantees it runs on every exit path.
func (s *Session) Close() error {
	s.close()
	return nil
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
	})
}

// run executes chromedp actions on the session's browser context while
// honoring the caller's context for cancellation and deadlines.
func (s *Session) run(ctx context.Context, tasks chromedp.Tasks) error {
	return runWithParent(ctx, s.tabCtx, tasks)
}

// runWithParent runs tasks on tabCtx, forwarding cancellation from parent.
// chromedp contexts do not inherit caller deadlines, so the bridge goroutine
// cancels the task context when the parent finishes first.
func runWithParent(parent, tabCtx context.Context, tasks chromedp.Tasks) error {
	taskCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()

	stop := forwardCancel(parent, cancel)
	defer stop()

	if err := chromedp.Run(taskCtx, tasks); err != nil {
		if ctxErr := parent.Err(); ctxErr != nil {
			return fmt.Errorf("chromedp run: %w", ctxErr)
		}
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

var _ scraper.Page = (*Session)(nil)
