package middleware

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiceg/voterlookup/gate"
	"github.com/civiceg/voterlookup/metrics"
	"github.com/civiceg/voterlookup/models"
)

// RateLimit returns per-identity (API key or IP) sliding-window rate
// limiting middleware backed by a gate.Admitter.
//
// Rejected requests receive 429 with a Retry-After header and a retry hint
// in the error body. Rejections do not consume quota, so a client that
// backs off for the advertised duration is admitted again.
func RateLimit(admitter gate.Admitter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity, exists := c.Get("api_key")
		if !exists {
			identity = c.ClientIP()
		}

		decision := admitter.Allow(c.Request.Context(), identity.(string))
		if !decision.Allowed {
			m.ObserveRateLimited()
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.LookupResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
				},
			})
			return
		}

		c.Next()
	}
}
