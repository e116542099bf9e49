package ctxmanage

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceIdKey = "trace_id"

// GetTraceIdOfRequest returns the trace id set by middleware.Logger.
// A request that skipped the middleware (e.g. webhook) still gets one.
func GetTraceIdOfRequest(c *gin.Context) string {
	v, ok := c.Get(TraceIdKey)
	if !ok {
		traceId := uuid.NewString()
		c.Set(TraceIdKey, traceId)
		return traceId
	}
	traceId, ok := v.(string)
	if !ok || traceId == "" {
		traceId = uuid.NewString()
		c.Set(TraceIdKey, traceId)
	}
	return traceId
}
