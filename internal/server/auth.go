package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// IngestTokenMiddleware guards alert ingestion with a pre-shared key.
// It checks: Authorization: Bearer <token>
// An empty token disables the check.
func IngestTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		raw := c.GetHeader("Authorization")
		scheme, presented, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") ||
			subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or missing ingest token",
			})
			return
		}
		c.Next()
	}
}
