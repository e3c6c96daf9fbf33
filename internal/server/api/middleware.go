package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayusman/abhinaya/internal/logger"
)

// Logger logs one line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		line := "[%s] %s %s %d %v %s"
		args := []any{c.Request.Method, path, c.ClientIP(), status, time.Since(start), c.Errors.String()}
		if status >= 500 {
			logger.Warn("API", line, args...)
			return
		}
		logger.Debug("API", line, args...)
	}
}
