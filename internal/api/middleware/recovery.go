package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a logged 500 instead of a dropped
// connection. The correlation ID is echoed back so the failed request can be
// matched to the stack trace in the log.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("Panic recovered",
				"error", r,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)

			body := gin.H{
				"error": gin.H{
					"code":    "INTERNAL_SERVER_ERROR",
					"message": "An internal server error occurred",
				},
			}
			if id := GetCorrelationID(c); id != "" {
				body["correlation_id"] = id
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
