package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ocrgateway/internal/logger"
)

// RequestLogger logs every request except health checks, at a level
// chosen by response status.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
			"client": c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}
		reqLog := log
		if id := GetRequestID(c); id != "" {
			reqLog = log.WithFields(logger.Fields(logger.FieldRequestID, id))
		}

		switch {
		case status >= 500:
			reqLog.Error("request completed", fields, logger.DurationFields(latency))
		case status >= 400:
			reqLog.Warn("request completed", fields, logger.DurationFields(latency))
		default:
			reqLog.Info("request completed", fields, logger.DurationFields(latency))
		}
	}
}
