// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
	config       *config.Config
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(db *gorm.DB, cfg *config.Config) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: user.NewAdminService(db, cfg, audit.NewService(db)),
		config:       cfg,
	}
}

// ListUsers handles GET /admin/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req user.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.adminService.ListUsers(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    resp,
	})
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	u, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    u,
	})
}

// ActivateUser handles PUT /admin/users/:id/activate
func (h *UserAdminHandler) ActivateUser(c *gin.Context) {
	h.setActive(c, true, "User activated successfully")
}

// DeactivateUser handles PUT /admin/users/:id/deactivate
func (h *UserAdminHandler) DeactivateUser(c *gin.Context) {
	h.setActive(c, false, "User deactivated successfully")
}

func (h *UserAdminHandler) setActive(c *gin.Context, active bool, message string) {
	actorID, _ := middleware.GetUserIDFromContext(c)
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	u, err := h.adminService.SetActive(c.Request.Context(), actorID, userID, active)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    u,
	})
}
