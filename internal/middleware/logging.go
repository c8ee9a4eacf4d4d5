package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/logger"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, zap.String("user_id", userID))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Warn("HTTP request failed", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}
