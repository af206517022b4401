package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"moodchef/internal/infrastructure/metrics"
)

// Metrics 記錄請求數與耗時，路由以註冊的路徑樣板為標籤
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.ActiveRequests.Inc()
		defer metrics.ActiveRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
