// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"gorm.io/gorm"
)

// Sentinel errors for category operations
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrFallbackCategory = errors.New("the fallback category cannot be deleted")
	ErrCategoryInUse    = errors.New("category has products referenced by open orders")
)

// CategoryService handles category business logic, including the
// deletion cascade
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Service
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config, auditService *audit.Service) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
		audit:  auditService,
	}
}

// CreateCategoryRequest represents category creation data
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ParentID    *uint  `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest represents category update data
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryTree represents the hierarchical category structure
type CategoryTree struct {
	Category
	Children []CategoryTree `json:"children,omitempty"`
}

// List retrieves all categories ordered for display
func (s *CategoryService) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	var categories []Category

	query := s.db.WithContext(ctx).Model(&Category{}).
		Order("sort_order ASC, name ASC")

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	return categories, nil
}

// Get retrieves a single category by ID
func (s *CategoryService) Get(ctx context.Context, id uint) (*Category, error) {
	var cat Category
	result := s.db.WithContext(ctx).Preload("Parent").First(&cat, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", result.Error)
	}
	return &cat, nil
}

// Tree retrieves categories as a hierarchy
func (s *CategoryService) Tree(ctx context.Context, includeInactive bool) ([]CategoryTree, error) {
	categories, err := s.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}

	children := make(map[uint][]Category)
	for _, cat := range categories {
		if cat.ParentID != nil {
			children[*cat.ParentID] = append(children[*cat.ParentID], cat)
		}
	}

	var build func(cat Category) CategoryTree
	build = func(cat Category) CategoryTree {
		node := CategoryTree{Category: cat}
		for _, child := range children[cat.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	var roots []CategoryTree
	for _, cat := range categories {
		if cat.ParentID == nil {
			roots = append(roots, build(cat))
		}
	}

	return roots, nil
}

// Create creates a category and materializes its ancestor path
func (s *CategoryService) Create(ctx context.Context, req *CreateCategoryRequest) (*Category, error) {
	var parent *Category
	if req.ParentID != nil {
		p, err := s.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		parent = p
	}

	cat := Category{
		Name:        req.Name,
		Slug:        s.uniqueCategorySlug(ctx, req.Name),
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&cat).Error; err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}

		// Path includes the node itself so subtree lookups are a
		// single prefix match
		path := fmt.Sprintf("/%d/", cat.ID)
		if parent != nil {
			path = fmt.Sprintf("%s%d/", parent.Path, cat.ID)
		}

		return tx.Model(&cat).Update("path", path).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, cat.ID)
}

// Update updates category fields. Parent moves are intentionally not
// supported to keep materialized paths stable.
func (s *CategoryService) Update(ctx context.Context, id uint, req *UpdateCategoryRequest) (*Category, error) {
	cat, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = s.uniqueCategorySlug(ctx, *req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return cat, nil
	}

	if err := s.db.WithContext(ctx).Model(cat).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete removes a category subtree. Products move to the fallback
// category, cart lines referencing them are pulled (releasing their
// reserved stock), and the action is audit logged. The whole cascade
// is one transaction; it aborts if any affected product appears in an
// order that is not cancelled.
func (s *CategoryService) Delete(ctx context.Context, id uint, actorID uint) error {
	cat, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if cat.IsFallback() {
		return ErrFallbackCategory
	}

	// Subtree category ids via the materialized path
	var subtree []Category
	if err := s.db.WithContext(ctx).Where("path LIKE ?", cat.Path+"%").Find(&subtree).Error; err != nil {
		return fmt.Errorf("failed to load category subtree: %w", err)
	}

	categoryIDs := make([]uint, len(subtree))
	for i, c := range subtree {
		categoryIDs[i] = c.ID
	}

	var productIDs []uint
	if err := s.db.WithContext(ctx).Model(&Product{}).
		Where("category_id IN ?", categoryIDs).
		Pluck("id", &productIDs).Error; err != nil {
		return fmt.Errorf("failed to collect category products: %w", err)
	}

	// Referential integrity: products that appear in open orders block
	// the deletion
	if len(productIDs) > 0 {
		var referenced int64
		err := s.db.WithContext(ctx).Table("order_items").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.product_id IN ?", productIDs).
			Where("orders.status <> ?", "cancelled").
			Count(&referenced).Error
		if err != nil {
			return fmt.Errorf("failed to check order references: %w", err)
		}
		if referenced > 0 {
			return ErrCategoryInUse
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fallback, err := s.ensureFallback(ctx, tx)
		if err != nil {
			return err
		}

		if len(productIDs) > 0 {
			if err := tx.Model(&Product{}).
				Where("id IN ?", productIDs).
				Update("category_id", fallback.ID).Error; err != nil {
				return fmt.Errorf("failed to reassign products: %w", err)
			}

			if err := s.pullCartLines(ctx, tx, productIDs); err != nil {
				return err
			}
		}

		if err := tx.Where("id IN ?", categoryIDs).Delete(&Category{}).Error; err != nil {
			return fmt.Errorf("failed to delete category subtree: %w", err)
		}

		before := map[string]interface{}{
			"category":    cat,
			"product_ids": productIDs,
		}
		after := map[string]interface{}{
			"fallback_category_id": fallback.ID,
		}
		return s.audit.Record(ctx, tx, actorID, "category.delete", "category", cat.ID, before, after)
	})
}

// EnsureFallback exposes fallback creation for seeding
func (s *CategoryService) EnsureFallback(ctx context.Context) (*Category, error) {
	return s.ensureFallback(ctx, s.db)
}

// ensureFallback finds or creates the "Uncategorized" category
func (s *CategoryService) ensureFallback(ctx context.Context, tx *gorm.DB) (*Category, error) {
	var fallback Category
	err := tx.WithContext(ctx).Where("name = ?", FallbackCategoryName).First(&fallback).Error
	if err == nil {
		return &fallback, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up fallback category: %w", err)
	}

	fallback = Category{
		Name:        FallbackCategoryName,
		Slug:        Slugify(FallbackCategoryName),
		Description: "Products without a category",
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(&fallback).Error; err != nil {
		return nil, fmt.Errorf("failed to create fallback category: %w", err)
	}
	if err := tx.WithContext(ctx).Model(&fallback).
		Update("path", fmt.Sprintf("/%d/", fallback.ID)).Error; err != nil {
		return nil, fmt.Errorf("failed to set fallback category path: %w", err)
	}

	return &fallback, nil
}

// pullCartLines removes cart lines referencing the given products and
// releases the stock those lines held. Raw table access avoids a
// dependency on the cart package.
func (s *CategoryService) pullCartLines(ctx context.Context, tx *gorm.DB, productIDs []uint) error {
	type cartLine struct {
		ProductID uint
		Quantity  int
	}

	var lines []cartLine
	if err := tx.WithContext(ctx).Table("cart_items").
		Select("product_id, quantity").
		Where("product_id IN ?", productIDs).
		Scan(&lines).Error; err != nil {
		return fmt.Errorf("failed to load cart lines: %w", err)
	}

	for _, line := range lines {
		if err := tx.WithContext(ctx).Model(&Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity)).Error; err != nil {
			return fmt.Errorf("failed to release cart stock: %w", err)
		}
	}

	if err := tx.WithContext(ctx).
		Exec("DELETE FROM cart_items WHERE product_id IN ?", productIDs).Error; err != nil {
		return fmt.Errorf("failed to pull cart lines: %w", err)
	}

	return nil
}

// uniqueCategorySlug appends a numeric suffix until the slug is free
func (s *CategoryService) uniqueCategorySlug(ctx context.Context, name string) string {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var count int64
		s.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
