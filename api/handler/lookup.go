package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/civiceg/voterlookup/cache"
	"github.com/civiceg/voterlookup/district"
	"github.com/civiceg/voterlookup/metrics"
	"github.com/civiceg/voterlookup/models"
)

// Retriever performs one registry lookup for a validated national ID.
// *scraper.Scraper satisfies it; tests substitute a stub.
type Retriever interface {
	Lookup(ctx context.Context, nationalID string, timeout time.Duration) (*models.LookupResult, error)
}

// PostLookup returns a handler for POST /api/v1/lookup.
func PostLookup(rt Retriever, df *district.Filter, cc *cache.Cache, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LookupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.LookupResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		doLookup(c, rt, df, cc, m, req.NationalID, time.Duration(req.Timeout)*time.Second)
	}
}

// GetLookup returns a handler for GET /api/v1/lookup/:national_id.
func GetLookup(rt Retriever, df *district.Filter, cc *cache.Cache, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		doLookup(c, rt, df, cc, m, c.Param("national_id"), 0)
	}
}

// doLookup is the shared pipeline behind both lookup routes:
// validate → cache → retrieve → classify into the response envelope.
func doLookup(c *gin.Context, rt Retriever, df *district.Filter, cc *cache.Cache, m *metrics.Metrics, rawID string, timeout time.Duration) {
	nationalID, err := models.ValidateNationalID(rawID)
	if err != nil {
		lerr := err.(*models.LookupError)
		c.JSON(http.StatusBadRequest, models.LookupResponse{
			Success: false,
			Error:   lerr.ToDetail(),
		})
		return
	}

	if rt == nil {
		c.JSON(http.StatusServiceUnavailable, models.LookupResponse{
			Success:    false,
			NationalID: nationalID,
			Error: &models.ErrorDetail{
				Code:    models.ErrCodeUnavailable,
				Message: "lookup service unavailable: browser failed to start",
			},
		})
		return
	}

	cacheKey := cache.Key(nationalID)
	if cc != nil {
		if cached, hit := cc.Get(cacheKey); hit {
			// Serve a copy; the cached entry is shared across requests.
			out := *cached
			out.CacheStatus = "hit"
			c.JSON(http.StatusOK, out)
			return
		}
	}

	result, err := rt.Lookup(c.Request.Context(), nationalID, timeout)
	if err != nil {
		respondError(c, nationalID, err)
		return
	}

	resp := shapeResponse(nationalID, result, df)
	m.ObserveLookup(statusLabel(resp))

	// Only definitive outcomes are worth caching; failures are transient.
	// The stored entry is a copy taken before CacheStatus is stamped, so
	// later hits never see this request's marker.
	if cc != nil && resp.Success {
		stored := *resp
		cc.Set(cacheKey, &stored)
		resp.CacheStatus = "miss"
	}

	c.JSON(http.StatusOK, resp)
}

// shapeResponse turns a pipeline result into the response envelope,
// applying the district policy to registered records.
func shapeResponse(nationalID string, result *models.LookupResult, df *district.Filter) *models.LookupResponse {
	if !result.Success {
		code := result.LastErrorCode
		if code == "" {
			code = models.ErrCodeInternal
		}
		return &models.LookupResponse{
			Success:    false,
			NationalID: nationalID,
			Error: &models.ErrorDetail{
				Code:    code,
				Message: result.LastError,
			},
			RetriesExhausted: result.RetriesExhausted,
		}
	}

	outcome := result.Outcome
	switch outcome.Status {
	case models.StatusRegistered:
		if df != nil && !df.InScope(outcome.Record) {
			return &models.LookupResponse{
				Success:    true,
				NationalID: nationalID,
				Status:     models.StatusOutOfDistrict,
				Data:       df.Redact(outcome.Record),
			}
		}
		return &models.LookupResponse{
			Success:    true,
			NationalID: nationalID,
			Status:     models.StatusRegistered,
			Data:       outcome.Record,
		}
	default:
		return &models.LookupResponse{
			Success:    true,
			NationalID: nationalID,
			Status:     outcome.Status,
			Data: models.TerminalData{
				Message: outcome.Message,
				Reason:  string(outcome.Status),
			},
		}
	}
}

func statusLabel(resp *models.LookupResponse) string {
	if !resp.Success {
		return "error"
	}
	return string(resp.Status)
}

// respondError maps a LookupError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, nationalID string, err error) {
	lerr, ok := err.(*models.LookupError)
	if !ok {
		lerr = models.NewLookupError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(lerr), models.LookupResponse{
		Success:    false,
		NationalID: nationalID,
		Error:      lerr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.LookupError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeUnavailable, models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
