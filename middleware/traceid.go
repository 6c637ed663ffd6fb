package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key carrying the request trace id.
	TraceIDKey = "trace_id"
	// TraceIDHeader is honored inbound and always set on the response, so
	// a caller can correlate its request with the server log and audit
	// trail.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID tags every request with a trace id, minting one when the caller
// did not supply its own.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the Gin context.
func GetTraceID(c *gin.Context) string {
	v, ok := c.Get(TraceIDKey)
	if !ok {
		return ""
	}
	return v.(string)
}
