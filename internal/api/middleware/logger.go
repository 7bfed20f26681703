package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ventanaops/ventana/internal/logger"
)

// RequestLogger assigns every request a request id, injects it into the
// request context for downstream log lines and writes a completion entry.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		ctx := logger.SetRequestID(c.Request.Context(), requestID)
		ctx = logger.SetComponent(ctx, "api")
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		entry := logger.With(logger.Fields{
			"method":               c.Request.Method,
			"path":                 c.Request.URL.Path,
			logger.FieldStatus:     c.Writer.Status(),
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry.Error(ctx, "request failed: %s", c.Errors.String())
			return
		}
		entry.Info(ctx, "request completed")
	}
}
