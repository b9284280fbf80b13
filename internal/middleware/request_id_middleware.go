// internal/middleware/request_id_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// RequestIDMiddleware tags every request with a ULID for log correlation.
// An inbound X-Request-ID is honored so upstream proxies stay traceable.
// IDs come from ulid.Make, whose entropy source is safe for concurrent
// request goroutines.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = ulid.Make().String()
		}

		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)

		c.Next()
	}
}

// GetRequestID gets the request ID from context
func GetRequestID(c *gin.Context) string {
	id, exists := c.Get("request_id")
	if !exists {
		return ""
	}

	s, ok := id.(string)
	if !ok {
		return ""
	}
	return s
}
