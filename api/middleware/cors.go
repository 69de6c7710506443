package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS returns middleware permitting cross-origin calls from the configured
// origins. An empty list allows any origin, matching the open posture of
// the registry itself.
func CORS(origins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o != "" {
			originSet[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := "*"
		if len(originSet) > 0 {
			if _, ok := originSet[origin]; !ok {
				c.Next()
				return
			}
			allowed = origin
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
