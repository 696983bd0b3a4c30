package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"minelog/backend/pkg/metrics"
)

// Metrics Prometheus 指标上报中间件
// 按路由模板（非原始路径）聚合，避免路径参数撑爆标签基数
func Metrics(mtr *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		mtr.ObserveRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
