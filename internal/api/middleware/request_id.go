package middleware

import (
	"github.com/GriffinCanCode/ecoswipe/internal/shared/id"
	"github.com/gin-gonic/gin"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin context key holding the request id
	RequestIDKey = "request_id"
)

// RequestID tags every request with a ULID request id. A well-formed id sent
// by the popup is kept so its logs and the bridge logs line up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := id.RequestID(c.GetHeader(RequestIDHeader))
		if !reqID.Valid() {
			reqID = id.NewRequestID()
		}
		c.Set(RequestIDKey, reqID.String())
		c.Header(RequestIDHeader, reqID.String())
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "" outside it
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
