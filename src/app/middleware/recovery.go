package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"budgettool/src/app/http/response"
)

// Recovery recovers from panics anywhere later in the chain, logs the stack
// and answers 500. Deferred releases further down (see PostgresSession) run
// before this handler sees the panic.
//
// It sits inside Logging and Metrics so the recovered 500 is still recorded
// by both.
//
// Usage:
//
//	router.Use(middleware.Recovery(logger))
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// Get request ID for correlation
				requestID := GetRequestID(c)

				// Log the panic with stack trace
				log.Error("panic recovered",
					"request_id", requestID,
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"stack", string(debug.Stack()),
				)

				// Return a generic error to the client.
				// Don't expose internal details for security.
				response.InternalError(c, requestID)
			}
		}()

		c.Next()
	}
}
