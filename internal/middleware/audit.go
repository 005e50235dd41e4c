package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	ContextAuditLog = "audit_log"
)

// AuditEntry describes one request. Handlers attach ledger context to it and
// the middleware emits it once the response is written.
type AuditEntry struct {
	ID        string
	Method    string
	Route     string
	IP        string
	Caller    string
	Status    int
	LatencyMs int64
	Context   map[string]any
}

// AuditMiddleware assigns a request ID and logs every mutating request with
// the caller that made it. Reads are logged at debug level.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header(HeaderRequestID, reqID)

		entry := &AuditEntry{
			ID:      reqID,
			Method:  c.Request.Method,
			IP:      c.ClientIP(),
			Context: make(map[string]any),
		}
		c.Set(ContextAuditLog, entry)

		c.Next()

		entry.Route = c.FullPath()
		entry.Caller = CallerFrom(c).Identity.Hex()
		entry.Status = c.Writer.Status()
		entry.LatencyMs = time.Since(start).Milliseconds()

		log := logger.With(
			"request_id", entry.ID,
			"method", entry.Method,
			"route", entry.Route,
			"caller", entry.Caller,
			"status", entry.Status,
			"latency_ms", entry.LatencyMs,
			"ip", entry.IP,
		)
		if len(entry.Context) > 0 {
			log = log.With("context", entry.Context)
		}
		if entry.Method == http.MethodGet || entry.Method == http.MethodHead {
			log.Debug("request")
			return
		}
		log.Info("audit")
	}
}

// AddAuditContext lets handlers attach business fields to the audit entry.
func AddAuditContext(c *gin.Context, key string, value any) {
	if val, exists := c.Get(ContextAuditLog); exists {
		if entry, ok := val.(*AuditEntry); ok {
			entry.Context[key] = value
		}
	}
}
