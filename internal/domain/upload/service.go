// internal/domain/upload/service.go
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

var (
	// ErrFileNotFound is returned for a missing upload record
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge is returned when the file exceeds the configured limit
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrExtensionNotAllowed is returned for disallowed file types
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
)

// Service handles file upload business logic. Files land under the
// configured local directory and are served statically.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Upload validates and stores a multipart file. The stored name is a
// uuid so original names never collide or traverse paths.
func (s *Service) Upload(ctx context.Context, userID uint, header *multipart.FileHeader) (*UploadedFile, error) {
	ext, err := s.validate(header)
	if err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	filename := uuid.New().String() + "." + ext
	fullPath := filepath.Join(s.config.Upload.LocalPath, filename)

	if err := os.MkdirAll(s.config.Upload.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	record := UploadedFile{
		OriginalName: header.Filename,
		Filename:     filename,
		Path:         fullPath,
		URL:          strings.TrimRight(s.config.Upload.URLPrefix, "/") + "/" + filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		UploadedBy:   userID,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}

	return &record, nil
}

// List retrieves upload records, newest first
func (s *Service) List(ctx context.Context, page, limit int) ([]UploadedFile, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&UploadedFile{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	var files []UploadedFile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&files).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve files: %w", err)
	}
	return files, total, nil
}

// Delete removes the record and the file on disk
func (s *Service) Delete(ctx context.Context, fileID uint) error {
	var record UploadedFile
	if err := s.db.WithContext(ctx).First(&record, fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to retrieve file: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	if err := os.Remove(record.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// validate checks size and extension against config and returns the
// normalized extension
func (s *Service) validate(header *multipart.FileHeader) (string, error) {
	if header.Size > s.config.Upload.MaxSize {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	for _, allowed := range s.config.Upload.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: .%s", ErrExtensionNotAllowed, ext)
}
