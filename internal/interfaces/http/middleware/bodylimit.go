package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
)

const bodyTooLargeMessage = "Request body exceeds maximum allowed size"

// BodyLimit caps ledger request bodies at maxBytes; zero or less disables
// the cap. Declared oversize bodies are rejected up front, chunked ones
// fail when the handler reads past the cap (see AbortBodyTooLarge).
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			AbortBodyTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// IsBodyTooLarge reports whether err came from reading past the body cap
func IsBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func AbortBodyTooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
		dto.NewErrorResponseWithRequestID(dto.ErrCodePayloadTooBig, bodyTooLargeMessage, GetRequestID(c)))
}
