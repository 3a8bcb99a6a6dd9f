// internal/domain/upload/entity.go
package upload

import (
	"time"
)

// UploadedFile is the database record for a stored file
type UploadedFile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OriginalName string    `json:"original_name" gorm:"not null"`
	Filename     string    `json:"filename" gorm:"uniqueIndex;not null"` // uuid-based
	Path         string    `json:"path" gorm:"not null"`
	URL          string    `json:"url" gorm:"not null"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	UploadedBy   uint      `json:"uploaded_by" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the table name for UploadedFile
func (UploadedFile) TableName() string {
	return "uploaded_files"
}
