package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/catalog-mapping-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxCallerIDLen = 128
)

// AttachTraceContext stores request/trace ids and the requested shop pair on
// the request context and echoes the ids back as response headers. Caller ids
// that are too long or contain control characters are replaced.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := callerID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := callerID(c.GetHeader(headerTraceID))
		if traceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
				traceID = sc.TraceID().String()
			} else {
				traceID = uuid.NewString()
			}
		}
		td := &ctxutil.TraceData{
			TraceID:      traceID,
			RequestID:    reqID,
			MasterShopID: callerID(c.Query("master_shop_id")),
			TargetShopID: callerID(c.Query("target_shop_id")),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Header(headerTraceID, traceID)
		c.Header(headerRequestID, reqID)
		c.Next()
	}
}

func callerID(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxCallerIDLen || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return ""
	}
	return raw
}
