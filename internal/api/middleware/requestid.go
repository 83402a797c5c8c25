package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/glasskit/windowd/internal/shared/id"
)

// HeaderRequestID carries the request id in both directions: a client
// may supply its own, otherwise one is minted.
const HeaderRequestID = "X-Request-ID"

// ContextRequestID is the gin context key the handlers read.
const ContextRequestID = "request_id"

// RequestID tags every request with an id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(ContextRequestID, rid)
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}
