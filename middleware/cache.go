package middleware

import "github.com/gin-gonic/gin"

// CacheControlMiddleware sets a fixed Cache-Control header, e.g. "no-store"
// for API routes or "public, max-age=300" for static files.
func CacheControlMiddleware(value string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
