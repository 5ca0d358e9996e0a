package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. Declared lengths are
// checked up front; chunked bodies fail when the handler reads past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
