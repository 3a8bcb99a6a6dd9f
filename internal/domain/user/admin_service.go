// internal/domain/user/admin_service.go
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"gorm.io/gorm"
)

// AdminService handles back-office user management
type AdminService struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Service
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config, auditSvc *audit.Service) *AdminService {
	return &AdminService{
		db:     db,
		config: cfg,
		audit:  auditSvc,
	}
}

// ListUsersRequest represents user list filters
type ListUsersRequest struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
	IsAdmin  *bool  `form:"is_admin"`
}

// UserListResponse represents a paginated user list
type UserListResponse struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ListUsers retrieves users with filtering and pagination
func (s *AdminService) ListUsers(ctx context.Context, req *ListUsersRequest) (*UserListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&User{})

	if req.Search != "" {
		term := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			term, term, term,
		)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.IsAdmin != nil {
		query = query.Where("is_admin = ?", *req.IsAdmin)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	totalPages := int(total) / req.Limit
	if int(total)%req.Limit > 0 {
		totalPages++
	}

	return &UserListResponse{
		Users: users,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// GetUser retrieves a single user with addresses
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*User, error) {
	var user User
	result := s.db.WithContext(ctx).Preload("Addresses").First(&user, userID)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", result.Error)
	}
	return &user, nil
}

// SetActive activates or deactivates an account and records the change
func (s *AdminService) SetActive(ctx context.Context, actorID, userID uint, active bool) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsActive == active {
		return user, nil
	}

	before := map[string]interface{}{"is_active": user.IsActive}
	after := map[string]interface{}{"is_active": active}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("is_active", active).Error; err != nil {
			return fmt.Errorf("failed to update user status: %w", err)
		}
		action := "user.deactivate"
		if active {
			action = "user.activate"
		}
		return s.audit.Record(ctx, tx, actorID, action, "user", user.ID, before, after)
	})
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	return user, nil
}
