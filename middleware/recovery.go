package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/utils"
)

func EnhancedRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				TrackError("panic")
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("request_id", c.GetString(RequestIDKey)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					utils.InternalError(c, http.StatusText(http.StatusInternalServerError))
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
