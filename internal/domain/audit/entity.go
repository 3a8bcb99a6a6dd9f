// internal/domain/audit/entity.go
package audit

import (
	"time"
)

// AuditLog records admin mutations with before/after snapshots
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ActorID    uint      `gorm:"not null;index" json:"actor_id"`
	Action     string    `gorm:"not null;size:100;index" json:"action"`
	EntityType string    `gorm:"not null;size:50;index" json:"entity_type"`
	EntityID   uint      `gorm:"index" json:"entity_id"`
	Before     string    `gorm:"type:text" json:"before,omitempty"` // JSON snapshot
	After      string    `gorm:"type:text" json:"after,omitempty"`  // JSON snapshot
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the table name
func (AuditLog) TableName() string {
	return "audit_logs"
}
