package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows every origin when the allowlist is empty, matching the
// open CORS posture of the auth API; a configured allowlist restricts
// it per origin.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	allowAll := len(allowed) == 0
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		if allowAll {
			headers.Set("Access-Control-Allow-Origin", "*")
			headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		} else {
			// the response depends on the request origin whether or not
			// it matched, so caches must key on it either way
			headers.Set("Vary", "Origin")
			origin := c.GetHeader("Origin")
			if _, ok := allowed[origin]; ok && origin != "" {
				headers.Set("Access-Control-Allow-Origin", origin)
				headers.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				headers.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			}
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
