package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-ID"

const correlationContextKey = "correlation_id"

// CorrelationID tags every request with an identifier so a posting or a close
// request can be traced from the HTTP log line through the audit trail.
// An ID supplied by the caller is kept; otherwise one is minted here.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationContextKey, id)
		c.Header(correlationHeader, id)
		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or "" when the
// middleware did not run (direct handler tests).
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationContextKey)
}
