package scraper

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/models"
)

// stubDriver scripts PageDriver behavior per attempt. failFrameUntil makes
// EnterFrame fail on attempts before that number; pageText/pageHTML are what
// a successful attempt reads back.
type stubDriver struct {
	failFrameUntil int
	failInput      bool
	failSubmit     bool
	pageText       string
	pageHTML       string

	navigations int
	frameEnters int
	frameExits  int
	fills       []string
	activations int
}

func (s *stubDriver) Navigate(url string) error {
	s.navigations++
	return nil
}

func (s *stubDriver) EnterFrame(selector string, budget time.Duration) error {
	s.frameEnters++
	if s.frameEnters < s.failFrameUntil {
		return errors.New("element not found: " + selector)
	}
	return nil
}

func (s *stubDriver) ExitToTopLevel() error {
	s.frameExits++
	return nil
}

func (s *stubDriver) FindAndFill(selector, text string, budget time.Duration) error {
	if s.failInput {
		return errors.New("element not found: " + selector)
	}
	s.fills = append(s.fills, text)
	return nil
}

func (s *stubDriver) FindAndActivate(selector string, budget time.Duration) error {
	if s.failSubmit {
		return errors.New("element not found: " + selector)
	}
	s.activations++
	return nil
}

func (s *stubDriver) ReadVisibleText() (string, error) {
	return s.pageText, nil
}

func (s *stubDriver) ReadHTML() (string, error) {
	return s.pageHTML, nil
}

func (s *stubDriver) WaitForAnyTextMatch(phrases []string, budget time.Duration) bool {
	return s.pageText != ""
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		InquiryURL:       "https://www.elections.eg/inquiry",
		MaxRetries:       3,
		RetryBaseDelay:   2 * time.Second,
		NavigationSettle: 0,
		ElementWait:      time.Second,
		SubmitSettle:     0,
		ResultWait:       0,
		DefaultTimeout:   30 * time.Second,
		MaxTimeout:       120 * time.Second,
	}
}

const registeredText = `مركزك الإنتخابي مدرسة النصر
قسم: قسم شرق
العنوان: شارع الجمهورية
رقم اللجنة الفرعية ٢٠
رقمك في الكشوف الانتخابية ٧٨٨١`

// newTestController wires a controller whose sleeps return instantly while
// recording the requested backoff durations.
func newTestController(driver PageDriver, cfg config.ScraperConfig) (*retryController, *[]time.Duration) {
	rc := newRetryController(driver, cfg, nil)
	var slept []time.Duration
	rc.sleep = func(ctx context.Context, d time.Duration) error {
		if d > 0 {
			slept = append(slept, d)
		}
		return ctx.Err()
	}
	return rc, &slept
}

func TestRunRecoversAfterTransientFrameFailures(t *testing.T) {
	driver := &stubDriver{
		failFrameUntil: 3,
		pageText:       registeredText,
	}
	rc, slept := newTestController(driver, testScraperConfig())

	result := rc.run(context.Background(), "29805150101234")

	if !result.Success {
		t.Fatalf("expected success, got failure: %s", result.LastError)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if result.Outcome.Status != models.StatusRegistered {
		t.Errorf("Status = %q, want %q", result.Outcome.Status, models.StatusRegistered)
	}

	// Attempt 2 waits base, attempt 3 waits base*2.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("recorded %d backoff sleeps %v, want %d", len(*slept), *slept, len(want))
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestRunExhaustsRetriesOnPersistentFrameFailure(t *testing.T) {
	driver := &stubDriver{failFrameUntil: 100}
	rc, _ := newTestController(driver, testScraperConfig())

	result := rc.run(context.Background(), "29805150101234")

	if result.Success {
		t.Fatal("expected failure")
	}
	if !result.RetriesExhausted {
		t.Error("expected RetriesExhausted to be set")
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
	if !strings.Contains(result.LastError, "could not find inquiry frame") {
		t.Errorf("LastError = %q, want it to mention the frame failure", result.LastError)
	}
	if result.LastErrorCode != models.ErrCodeFrameNotFound {
		t.Errorf("LastErrorCode = %q, want %q", result.LastErrorCode, models.ErrCodeFrameNotFound)
	}
	if driver.frameEnters != 3 {
		t.Errorf("EnterFrame called %d times, want 3", driver.frameEnters)
	}
}

func TestRunReturnsTerminalOutcomeWithoutRetry(t *testing.T) {
	driver := &stubDriver{
		failFrameUntil: 0,
		pageText:       "الرقم القومي غير مدرج بقاعدة بيانات الناخبين",
	}
	rc, slept := newTestController(driver, testScraperConfig())

	result := rc.run(context.Background(), "29805150101234")

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.LastError)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if result.Outcome.Status != models.StatusNotRegistered {
		t.Errorf("Status = %q, want %q", result.Outcome.Status, models.StatusNotRegistered)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected backoff sleeps: %v", *slept)
	}
}

func TestRunRetriesEmptyPage(t *testing.T) {
	driver := &stubDriver{pageText: "..."}
	rc, _ := newTestController(driver, testScraperConfig())

	result := rc.run(context.Background(), "29805150101234")

	if result.Success {
		t.Fatal("expected failure on persistently empty result page")
	}
	if !result.RetriesExhausted {
		t.Error("expected RetriesExhausted to be set")
	}
	if driver.navigations != 3 {
		t.Errorf("navigated %d times, want 3", driver.navigations)
	}
}

func TestRunExitsFrameOnEveryAttempt(t *testing.T) {
	driver := &stubDriver{failFrameUntil: 100}
	rc, _ := newTestController(driver, testScraperConfig())

	rc.run(context.Background(), "29805150101234")

	if driver.frameExits != 3 {
		t.Errorf("ExitToTopLevel called %d times, want once per attempt (3)", driver.frameExits)
	}
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	driver := &stubDriver{failFrameUntil: 100}
	rc, _ := newTestController(driver, testScraperConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := rc.run(ctx, "29805150101234")

	if result.Success {
		t.Fatal("expected failure with a cancelled context")
	}
	if result.RetriesExhausted {
		t.Error("a timeout is not retry exhaustion")
	}
	if !strings.Contains(result.LastError, "timed out") {
		t.Errorf("LastError = %q, want a timeout message", result.LastError)
	}
	if result.LastErrorCode != models.ErrCodeTimeout {
		t.Errorf("LastErrorCode = %q, want %q", result.LastErrorCode, models.ErrCodeTimeout)
	}
}

func TestRunSurfacesRegisteredWithEmptyRecord(t *testing.T) {
	// A page that passes the length gate and matches no terminal phrase
	// classifies as registered even when no field extracts.
	driver := &stubDriver{
		pageText: "صفحة نتائج الاستعلام عن بيانات الناخب بدون حقول معروفة",
	}
	rc, slept := newTestController(driver, testScraperConfig())

	result := rc.run(context.Background(), "29805150101234")

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.LastError)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (empty record is not retried)", result.Attempts)
	}
	if !result.Outcome.Record.Empty() {
		t.Errorf("expected an empty record, got %+v", result.Outcome.Record)
	}
	if len(*slept) != 0 {
		t.Errorf("unexpected backoff sleeps: %v", *slept)
	}
}

func TestRunFillsTheSubmittedID(t *testing.T) {
	driver := &stubDriver{pageText: registeredText}
	rc, _ := newTestController(driver, testScraperConfig())

	rc.run(context.Background(), "29805150101234")

	if len(driver.fills) != 1 || driver.fills[0] != "29805150101234" {
		t.Errorf("fills = %v, want the national ID typed exactly once", driver.fills)
	}
	if driver.activations != 1 {
		t.Errorf("submit activated %d times, want 1", driver.activations)
	}
}
