// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Sentinel errors for the catalog
var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUTaken        = errors.New("sku already in use")
	ErrStockNegative   = errors.New("stock adjustment would go negative")
)

// Service handles product catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	SKU          string `json:"sku" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Price        int64  `json:"price" binding:"required,min=1"`
	ComparePrice int64  `json:"compare_price"`
	Stock        int    `json:"stock" binding:"min=0"`
	CategoryID   uint   `json:"category_id" binding:"required"`
	IsActive     *bool  `json:"is_active"`
	IsFeatured   bool   `json:"is_featured"`
}

// UpdateProductRequest represents product update data
type UpdateProductRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Price        *int64  `json:"price" binding:"omitempty,min=1"`
	ComparePrice *int64  `json:"compare_price"`
	CategoryID   *uint   `json:"category_id"`
	IsActive     *bool   `json:"is_active"`
	IsFeatured   *bool   `json:"is_featured"`
}

// ListRequest represents product list query parameters
type ListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	Search     string `form:"search"`
	Featured   *bool  `form:"featured"`
	InStock    *bool  `form:"in_stock"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
}

// ListResponse represents products with pagination
type ListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// List retrieves products with filtering and pagination
func (s *Service) List(ctx context.Context, req *ListRequest, includeInactive bool) (*ListResponse, error) {
	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{}).
		Preload("Category").
		Preload("Images")

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.Search != "" {
		pattern := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if req.Featured != nil {
		query = query.Where("is_featured = ?", *req.Featured)
	}

	if req.InStock != nil && *req.InStock {
		query = query.Where("stock > 0")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &ListResponse{
		Products: products,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Get retrieves a single product by ID
func (s *Service) Get(ctx context.Context, id uint) (*Product, error) {
	var prod Product
	result := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images").
		First(&prod, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// GetBySlug retrieves a single product by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	var prod Product
	result := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Images").
		Where("slug = ?", slug).
		First(&prod)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &prod, nil
}

// Create creates a new product. The slug is generated here in the
// service layer, not in a persistence hook.
func (s *Service) Create(ctx context.Context, req *CreateProductRequest) (*Product, error) {
	var existing Product
	if err := s.db.WithContext(ctx).Where("sku = ?", req.SKU).First(&existing).Error; err == nil {
		return nil, ErrSKUTaken
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	prod := Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Slug:         s.uniqueSlug(ctx, req.Name),
		Description:  req.Description,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Stock:        req.Stock,
		CategoryID:   req.CategoryID,
		IsActive:     isActive,
		IsFeatured:   req.IsFeatured,
	}

	if err := s.db.WithContext(ctx).Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.Get(ctx, prod.ID)
}

// Update updates an existing product
func (s *Service) Update(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	prod, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = s.uniqueSlug(ctx, *req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ComparePrice != nil {
		updates["compare_price"] = *req.ComparePrice
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}

	if len(updates) == 0 {
		return prod, nil
	}

	if err := s.db.WithContext(ctx).Model(prod).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete soft-deletes a product
func (s *Service) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// AdjustStock applies a signed delta to a product's stock. Used by
// admin corrections; negative results are rejected by the conditional
// update.
func (s *Service) AdjustStock(ctx context.Context, id uint, delta int) (*Product, error) {
	result := s.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))

	if result.Error != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStockNegative
	}

	return s.Get(ctx, id)
}

// Private helpers

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a name to a URL slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// uniqueSlug appends a numeric suffix until the slug is free
func (s *Service) uniqueSlug(ctx context.Context, name string) string {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		s.db.WithContext(ctx).Model(&Product{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"price":      true,
		"name":       true,
		"stock":      true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
