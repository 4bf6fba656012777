package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
)

// Metrics 指标收集中间件
//
// 按路由模板（而非原始路径）打标签，避免标签基数膨胀。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
