package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "agencyledger/internal/errors"
)

// JobsAuthMiddleware validates the X-API-Key header sent by external
// schedulers against the configured jobs API key.
func JobsAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "JOBS_NOT_CONFIGURED", "message": "Job endpoints are not configured"}})
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(apperrors.ErrInvalidAPIKey.StatusCode,
				gin.H{"error": gin.H{"code": apperrors.ErrInvalidAPIKey.Code, "message": apperrors.ErrInvalidAPIKey.Message}})
			return
		}
		c.Set(ActorKey, "scheduler")
		c.Next()
	}
}
