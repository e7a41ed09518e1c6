package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/payledger/internal/observability"
)

const unmatchedRoute = "unmatched"

// probeRoutes are polled by orchestrators and left out of API series.
var probeRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

// Metrics records per-route counts and latency for the payment API. Requests that
// match no route share one "unmatched" label so scanners cannot grow the series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if probeRoutes[route] {
			c.Next()
			return
		}
		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()

		c.Next()

		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
