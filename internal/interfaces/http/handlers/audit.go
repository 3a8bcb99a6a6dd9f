// internal/interfaces/http/handlers/audit.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"gorm.io/gorm"
)

// AuditHandler handles admin audit log endpoints
type AuditHandler struct {
	auditService *audit.Service
	config       *config.Config
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB, cfg *config.Config) *AuditHandler {
	return &AuditHandler{
		auditService: audit.NewService(db),
		config:       cfg,
	}
}

// ListAuditLogs handles GET /admin/audit-logs
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var req audit.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	entries, total, err := h.auditService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Audit logs retrieved successfully",
		"data": gin.H{
			"entries": entries,
			"total":   total,
			"page":    req.Page,
			"limit":   req.Limit,
		},
	})
}
