package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yungbote/pawclinic-backend/internal/observability"
)

// unmatchedRoute labels 404s so scanners cannot blow up label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request latency and in-flight count per route template.
// The scrape endpoint itself is not measured.
func Metrics(m *observability.Metrics, scrapePath string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route != "" && route == scrapePath {
			c.Next()
			return
		}
		m.ApiInflightInc()
		defer m.ApiInflightDec()
		start := time.Now()
		c.Next()

		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
