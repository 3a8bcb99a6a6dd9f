// internal/domain/audit/service.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// Service writes and queries audit log entries
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Record writes an audit entry. Pass a transaction handle to make the
// entry part of the mutation it documents.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, actorID uint, action, entityType string, entityID uint, before, after interface{}) error {
	if tx == nil {
		tx = s.db
	}

	entry := AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     marshalSnapshot(before),
		After:      marshalSnapshot(after),
	}

	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}

// ListRequest represents audit log query parameters
type ListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=50"`
	EntityType string `form:"entity_type"`
	ActorID    uint   `form:"actor_id"`
}

// List retrieves audit log entries, newest first
func (s *Service) List(ctx context.Context, req *ListRequest) ([]AuditLog, int64, error) {
	var entries []AuditLog
	var total int64

	query := s.db.WithContext(ctx).Model(&AuditLog{})

	if req.EntityType != "" {
		query = query.Where("entity_type = ?", req.EntityType)
	}
	if req.ActorID > 0 {
		query = query.Where("actor_id = ?", req.ActorID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 200 {
		req.Limit = 50
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve audit logs: %w", err)
	}

	return entries, total, nil
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
