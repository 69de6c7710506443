package scraper

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// PageDriver is the capability the retry controller needs from the browser:
// navigate, enter the form frame, interact, read. All waits are bounded.
// The retry controller never touches rod directly, so tests drive it with
// a stub.
type PageDriver interface {
	// Navigate loads the URL and resets any frame context.
	Navigate(url string) error

	// EnterFrame locates the embedded frame and makes it the current
	// document for subsequent operations.
	EnterFrame(selector string, budget time.Duration) error

	// ExitToTopLevel returns to the top-level document. Callers treat a
	// failure here as non-fatal.
	ExitToTopLevel() error

	// FindAndFill locates the input, clears it and types text.
	FindAndFill(selector, text string, budget time.Duration) error

	// FindAndActivate locates and clicks the control.
	FindAndActivate(selector string, budget time.Duration) error

	// ReadVisibleText returns the rendered text of the current document.
	ReadVisibleText() (string, error)

	// ReadHTML returns the current document's HTML for structural
	// extraction.
	ReadHTML() (string, error)

	// WaitForAnyTextMatch waits up to budget for any of the phrases to
	// appear in the rendered text. Best-effort: false is not an error.
	WaitForAnyTextMatch(phrases []string, budget time.Duration) bool
}

// rodDriver drives a context-bound rod page. The page is borrowed from the
// pool for exactly one lookup; frame state never survives a Navigate.
type rodDriver struct {
	page  *rod.Page
	frame *rod.Page
}

func newRodDriver(page *rod.Page) *rodDriver {
	return &rodDriver{page: page}
}

// current returns the frame when one is entered, the page otherwise.
func (d *rodDriver) current() *rod.Page {
	if d.frame != nil {
		return d.frame
	}
	return d.page
}

func (d *rodDriver) Navigate(url string) error {
	d.frame = nil
	return d.page.Navigate(url)
}

func (d *rodDriver) EnterFrame(selector string, budget time.Duration) error {
	el, err := d.page.Timeout(budget).Element(selector)
	if err != nil {
		return err
	}
	frame, err := el.Frame()
	if err != nil {
		return err
	}
	d.frame = frame
	return nil
}

func (d *rodDriver) ExitToTopLevel() error {
	d.frame = nil
	return nil
}

func (d *rodDriver) FindAndFill(selector, text string, budget time.Duration) error {
	el, err := d.current().Timeout(budget).Element(selector)
	if err != nil {
		return err
	}
	// Select-all before typing replaces any stale value left on the form.
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

func (d *rodDriver) FindAndActivate(selector string, budget time.Duration) error {
	el, err := d.current().Timeout(budget).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (d *rodDriver) ReadVisibleText() (string, error) {
	res, err := d.current().Eval(`() => document.body.innerText`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (d *rodDriver) ReadHTML() (string, error) {
	return d.current().HTML()
}

func (d *rodDriver) WaitForAnyTextMatch(phrases []string, budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	for {
		text, err := d.ReadVisibleText()
		if err == nil {
			for _, phrase := range phrases {
				if strings.Contains(text, phrase) {
					return true
				}
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-d.current().GetContext().Done():
			return false
		}
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
