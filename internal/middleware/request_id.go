package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// contextRequestID is the gin context key handlers can read the id from.
const contextRequestID = "request_id"

// RequestID accepts a caller-supplied X-Request-Id (the storefront UI
// sends one per user action) or mints a uuid, and echoes it so the access
// log and the UI can correlate a failed action with its server entry.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(contextRequestID, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		c.Next()
	}
}
