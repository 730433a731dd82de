package middleware

import (
	"github.com/gin-gonic/gin"

	"budgettool/src/infra/metrics"
)

// Metrics records request counts and latencies labelled by route template,
// so /data/accounts and an unmatched path never share a series.
func Metrics(m *metrics.HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.Begin()
		defer func() {
			done(c.Request.Method, c.FullPath(), c.Writer.Status())
		}()
		c.Next()
	}
}
