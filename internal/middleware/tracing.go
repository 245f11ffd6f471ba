package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/tracing"
)

// Tracing middleware opens a span per request
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracing.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer tracing.FinishSpan(span)

		tracing.SetTag(span, "http.method", c.Request.Method)
		tracing.SetTag(span, "http.url", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		tracing.SetTag(span, "http.status_code", c.Writer.Status())
	}
}
