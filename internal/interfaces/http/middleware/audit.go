// internal/interfaces/http/middleware/audit.go
package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
)

// AuditTrail records every successful admin mutation onto the job
// queue. The worker persists the entries, so the admin request never
// waits on the audit write. Detailed before/after snapshots for
// destructive operations are written by the services themselves; this
// trail covers the rest.
func AuditTrail(dispatcher queue.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			return
		}
		if c.Writer.Status() >= 400 {
			return
		}

		actorID, _ := GetUserIDFromContext(c)

		var entityID uint64
		if raw := c.Param("id"); raw != "" {
			entityID, _ = strconv.ParseUint(raw, 10, 64)
		}

		// Queue failures must not affect the response; the status is
		// already written by the time we get here.
		_ = dispatcher.Enqueue(c.Request.Context(), queue.JobAuditRecord, map[string]interface{}{
			"actor_id":    actorID,
			"action":      c.Request.Method + " " + c.FullPath(),
			"entity_type": entityTypeFromPath(c.FullPath()),
			"entity_id":   entityID,
		})
	}
}

// entityTypeFromPath extracts the resource segment following /admin/,
// e.g. "products" from /api/v1/admin/products/:id/stock.
func entityTypeFromPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "admin" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return "unknown"
}
