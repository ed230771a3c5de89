package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the id back to the caller on every back-office response.
	CorrelationIDHeader = "X-Correlation-ID"

	// RequestIDHeader is honoured when a proxy in front of the back office only sets a request id.
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDKey is the gin context key read by the request logger,
	// the panic recovery and the JSON response envelope.
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags each request with an id that ties together the access
// log line, any recovered panic and the correlation_id field of the
// response envelope. A caller supplied id is reused, otherwise a UUID is
// generated.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingCorrelationID(c)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, id)
		c.Set(CorrelationIDKey, id)

		c.Next()
	}
}

func incomingCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, RequestIDHeader} {
		if id := c.GetHeader(header); id != "" {
			return id
		}
	}
	return ""
}

// GetCorrelationID returns the id set by CorrelationID, or "" outside that middleware.
func GetCorrelationID(c *gin.Context) string {
	id, _ := c.Get(CorrelationIDKey)
	s, _ := id.(string)
	return s
}
