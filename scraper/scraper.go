// Package scraper owns the browser session and the retry-governed
// interaction with the registry's inquiry form.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"golang.org/x/time/rate"

	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/gate"
	"github.com/civiceg/voterlookup/metrics"
	"github.com/civiceg/voterlookup/models"
)

// Scraper manages the global browser lifecycle, the page pool, the permit
// pool and the pacing of navigations to the registry. It is safe for
// concurrent use; the permit pool caps how many lookups touch the browser
// at once.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	permits     *gate.PermitPool
	pacer       *rate.Limiter
	metrics     *metrics.Metrics
	activePages atomic.Int32
}

// NewScraper launches a headless browser and initialises the reusable page
// pool. The pool is sized to the permit capacity: a permit is what entitles
// a lookup to a page.
func NewScraper(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, gateCfg config.GateConfig, m *metrics.Metrics) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	// The registry rejects obviously automated sessions.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-sync"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(gateCfg.MaxConcurrent)
	slog.Info("page pool created", "maxPages", gateCfg.MaxConcurrent)

	return &Scraper{
		browser:    browser,
		pagePool:   pool,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		permits:    gate.NewPermitPool(gateCfg.MaxConcurrent),
		pacer:      rate.NewLimiter(rate.Every(scraperCfg.PaceInterval), 1),
		metrics:    m,
	}, nil
}

// Lookup retrieves the registration record for a validated national ID.
//
// The whole call, retries included, is bounded by timeout (the configured
// default when zero, capped at the configured maximum). The caller blocks
// cooperatively for a browser permit; the permit is released on every exit
// path.
func (s *Scraper) Lookup(ctx context.Context, nationalID string, timeout time.Duration) (*models.LookupResult, error) {
	if timeout <= 0 {
		timeout = s.scraperCfg.DefaultTimeout
	}
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.permits.Acquire(ctx); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeTimeout,
			"timed out waiting for a browser permit",
			err,
		)
	}
	defer s.permits.Release()

	s.metrics.LookupStarted()
	defer s.metrics.LookupFinished()

	// Pace navigations: the registry is a shared public service.
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, models.NewLookupError(models.ErrCodeTimeout, "lookup timed out", err)
	}

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.preparePage()
	})
	if acquireErr != nil {
		return nil, models.NewLookupError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// The original page reference (without the request context) cleans up
	// even when the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	driver := newRodDriver(page.Context(ctx))
	rc := newRetryController(driver, s.scraperCfg, s.metrics)

	slog.Info("lookup started", "nationalID", nationalID)
	result := rc.run(ctx, nationalID)
	if result.Success {
		slog.Info("lookup finished",
			"nationalID", nationalID,
			"status", result.Outcome.Status,
			"attempts", result.Attempts,
		)
	} else {
		slog.Error("lookup failed",
			"nationalID", nationalID,
			"attempts", result.Attempts,
			"retriesExhausted", result.RetriesExhausted,
			"error", result.LastError,
		)
	}
	return result, nil
}

// preparePage creates a fresh tab with the stealth script and registry
// headers installed. Installation happens before any navigation so it takes
// effect for the whole page lifetime in the pool.
func (s *Scraper) preparePage() (*rod.Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	if s.browserCfg.UserAgent != "" {
		_ = (proto.NetworkSetUserAgentOverride{
			UserAgent: s.browserCfg.UserAgent,
		}).Call(page)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "ar-EG,ar;q=0.9,en;q=0.6",
		}),
	}.Call(page)

	return page, nil
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.permits.Capacity(),
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	s.browser.MustClose()
	slog.Info("scraper shutdown complete")
}
