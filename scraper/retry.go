package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/extract"
	"github.com/civiceg/voterlookup/metrics"
	"github.com/civiceg/voterlookup/models"
)

// Selectors on the inquiry page. The form lives inside an embedded iframe.
const (
	frameSelector  = "#ocv_iframe_id"
	inputSelector  = "#nid"
	submitSelector = "#submit_btn"
)

// retryController runs the navigate→fill→submit→read sequence against a
// PageDriver, classifying each failure as retryable or terminal and backing
// off exponentially between attempts.
type retryController struct {
	driver  PageDriver
	cfg     config.ScraperConfig
	metrics *metrics.Metrics

	// sleep is swapped out by tests to observe the backoff schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryController(driver PageDriver, cfg config.ScraperConfig, m *metrics.Metrics) *retryController {
	return &retryController{
		driver:  driver,
		cfg:     cfg,
		metrics: m,
		sleep:   sleepCtx,
	}
}

// sleepCtx sleeps for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run performs up to MaxRetries attempts. Attempt n>1 waits
// RetryBaseDelay·2^(n-2) first. Terminal outcomes return immediately;
// retryable failures continue; anything else ends the call.
func (rc *retryController) run(ctx context.Context, nationalID string) *models.LookupResult {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = rc.cfg.RetryBaseDelay
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.MaxInterval = 10 * time.Minute
	schedule.MaxElapsedTime = 0 // the caller's context bounds the call
	schedule.Reset()

	var lastErr *models.LookupError

	for attempt := 1; attempt <= rc.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := schedule.NextBackOff()
			slog.Info("retrying lookup",
				"attempt", attempt,
				"maxRetries", rc.cfg.MaxRetries,
				"delay", delay,
			)
			if err := rc.sleep(ctx, delay); err != nil {
				return rc.timedOut(attempt-1, err)
			}
		}

		rc.metrics.ObserveAttempt()
		outcome, aerr := rc.attempt(ctx, nationalID)
		if aerr == nil {
			if outcome.Status == models.StatusRegistered && outcome.Record.Empty() {
				// Probably a layout change rather than a blank
				// registration; keep the answer but flag it.
				slog.Warn("registration page yielded no fields",
					"attempt", attempt,
				)
				rc.metrics.ObserveEmptyRecord()
			}
			return &models.LookupResult{
				Success:  true,
				Outcome:  outcome,
				Attempts: attempt,
			}
		}

		lastErr = aerr
		if ctx.Err() != nil {
			return rc.timedOut(attempt, ctx.Err())
		}
		if !aerr.Retryable() {
			return &models.LookupResult{
				Success:       false,
				Attempts:      attempt,
				LastError:     aerr.Message,
				LastErrorCode: aerr.Code,
			}
		}
		slog.Warn("lookup attempt failed",
			"attempt", attempt,
			"maxRetries", rc.cfg.MaxRetries,
			"code", aerr.Code,
			"error", aerr.Message,
		)
	}

	return &models.LookupResult{
		Success:          false,
		Attempts:         rc.cfg.MaxRetries,
		RetriesExhausted: true,
		LastError: fmt.Sprintf("failed after %d attempts; last error: %s",
			rc.cfg.MaxRetries, lastErr.Message),
		LastErrorCode: lastErr.Code,
	}
}

func (rc *retryController) timedOut(attempts int, err error) *models.LookupResult {
	lerr := models.NewLookupError(models.ErrCodeTimeout, "lookup timed out", err)
	return &models.LookupResult{
		Success:       false,
		Attempts:      attempts,
		LastError:     lerr.Message,
		LastErrorCode: lerr.Code,
	}
}

// attempt runs one full navigate→fill→submit→read pass. The frame context
// is released on every exit path; a failed release is logged, never fatal.
func (rc *retryController) attempt(ctx context.Context, nationalID string) (*models.Outcome, *models.LookupError) {
	defer func() {
		if err := rc.driver.ExitToTopLevel(); err != nil {
			slog.Debug("failed to return to top-level document", "error", err)
		}
	}()

	if err := rc.driver.Navigate(rc.cfg.InquiryURL); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeNavigation, "failed to navigate to inquiry page", err)
	}
	if err := rc.sleep(ctx, rc.cfg.NavigationSettle); err != nil {
		return nil, models.NewLookupError(models.ErrCodeTimeout, "lookup timed out", err)
	}

	if err := rc.driver.EnterFrame(frameSelector, rc.cfg.ElementWait); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeFrameNotFound, "could not find inquiry frame - page structure may have changed", err)
	}

	if err := rc.driver.FindAndFill(inputSelector, nationalID, rc.cfg.ElementWait); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeInputNotFound, "could not find national ID input field", err)
	}

	if err := rc.driver.FindAndActivate(submitSelector, rc.cfg.ElementWait); err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeSubmitFailed, "could not find submit button", err)
	}

	if err := rc.sleep(ctx, rc.cfg.SubmitSettle); err != nil {
		return nil, models.NewLookupError(models.ErrCodeTimeout, "lookup timed out", err)
	}
	// Best-effort: the result pane renders asynchronously and sometimes
	// never shows a known phrase; proceed with whatever is there.
	rc.driver.WaitForAnyTextMatch(extract.ResultIndicators, rc.cfg.ResultWait)

	text, err := rc.driver.ReadVisibleText()
	if err != nil {
		return nil, models.NewLookupError(
			models.ErrCodeExtraction, "failed to read page content", err)
	}
	pageHTML, err := rc.driver.ReadHTML()
	if err != nil {
		pageHTML = "" // textual extraction still works from text alone
	}

	return extract.Classify(pageHTML, text)
}
