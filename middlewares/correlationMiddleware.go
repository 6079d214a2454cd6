package middlewares

import (
	"bitbucket.org/mmdatafocus/hr_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"

// CorrelationMiddleware carries the caller's correlation id through the
// request context and echoes it on the response, minting one when absent.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.Request.Header.Get(correlationHeader)
		if cid == "" {
			cid = uuid.NewString()
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(correlationHeader, cid)
		c.Next()
	}
}

// LanguageMiddleware records the preferred answer language for the
// assistant. Defaults to English downstream when the header is absent.
func LanguageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if lang := c.Request.Header.Get("X-Answer-Language"); lang != "" {
			c.Request = c.Request.WithContext(utils.SetLanguageInContext(c.Request.Context(), lang))
		}
		c.Next()
	}
}
