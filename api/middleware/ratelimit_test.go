package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civiceg/voterlookup/gate"
	"github.com/civiceg/voterlookup/models"
)

func newLimitedRouter(admitter gate.Admitter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(admitter, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitRejectsOverQuota(t *testing.T) {
	r := newLimitedRouter(gate.NewMemoryWindow(2, 60*time.Second))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want the window length in seconds (60)", got)
	}

	var resp models.LookupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v, want RATE_LIMITED", resp.Error)
	}
}

func TestRateLimitSeparatesIdentities(t *testing.T) {
	r := newLimitedRouter(gate.NewMemoryWindow(1, 60*time.Second))

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("first identity: status = %d, want 200", w.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)
	if w.Code != http.StatusOK {
		t.Errorf("second identity: status = %d, want 200 (quota is per identity)", w.Code)
	}
}
