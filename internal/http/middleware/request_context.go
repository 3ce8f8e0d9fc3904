package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/pawclinic-backend/internal/platform/ctxutil"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"

	maxRequestIDLen = 64
)

// RequestContext seeds ctxutil.RequestData for every request: a request id
// (taken from a well formed X-Request-Id or generated), the otel trace id when
// tracing is on, and the client IP the login limiter keys on.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{
			RequestID: inboundRequestID(c.GetHeader(HeaderRequestID)),
			ClientIP:  c.ClientIP(),
		}
		if rd.RequestID == "" {
			rd.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			rd.TraceID = sc.TraceID().String()
			c.Header(HeaderTraceID, rd.TraceID)
		}
		c.Header(HeaderRequestID, rd.RequestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// inboundRequestID drops ids that would pollute logs.
func inboundRequestID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxRequestIDLen {
		return ""
	}
	for _, r := range v {
		if r <= ' ' || r > '~' {
			return ""
		}
	}
	return v
}
