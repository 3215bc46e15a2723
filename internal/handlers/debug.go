package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"match-service/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints. GET /debug/audit-test emits
// one audit record; ?level= and ?text= override the defaults.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}

		level := telemetry.Level(strings.ToUpper(c.DefaultQuery("level", string(telemetry.LevelInfo))))
		switch level {
		case telemetry.LevelInfo, telemetry.LevelWarn, telemetry.LevelError:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "level must be INFO, WARN or ERROR"})
			return
		}

		requestID := requestIDFromContext(c)
		emitter.Emit(c.Request.Context(), level, c.DefaultQuery("text", "audit test"), requestID, auditUserID(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestID})
	})
}
