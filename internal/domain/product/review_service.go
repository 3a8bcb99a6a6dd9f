// internal/domain/product/review_service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Sentinel errors for review operations
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("product already reviewed by this user")
	ErrNotReviewOwner  = errors.New("review belongs to another user")
)

// ReviewService handles product review business logic
type ReviewService struct {
	db     *gorm.DB
	config *config.Config
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB, cfg *config.Config) *ReviewService {
	return &ReviewService{
		db:     db,
		config: cfg,
	}
}

// CreateReviewRequest represents review creation data
type CreateReviewRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// UpdateReviewRequest represents review update data
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Create creates a review, marking it verified when the user has a
// delivered order containing the product
func (s *ReviewService) Create(ctx context.Context, userID uint, req *CreateReviewRequest) (*ProductReview, error) {
	var prod Product
	if err := s.db.WithContext(ctx).First(&prod, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	var existing ProductReview
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", req.ProductID, userID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyReviewed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	orderID := s.verifiedOrderID(ctx, userID, req.ProductID)

	review := ProductReview{
		ProductID:  req.ProductID,
		UserID:     userID,
		OrderID:    orderID,
		Rating:     req.Rating,
		Title:      req.Title,
		Content:    req.Content,
		IsVerified: orderID != nil,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return s.recomputeAggregates(ctx, tx, req.ProductID)
	})
	if err != nil {
		return nil, err
	}

	return &review, nil
}

// Update updates a user's own review
func (s *ReviewService) Update(ctx context.Context, userID, reviewID uint, req *UpdateReviewRequest) (*ProductReview, error) {
	review, err := s.getOwned(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}

	if len(updates) == 0 {
		return review, nil
	}

	// Edits go back through moderation
	updates["is_approved"] = false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(review).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		return s.recomputeAggregates(ctx, tx, review.ProductID)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// Delete removes a user's own review
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID uint) error {
	review, err := s.getOwned(ctx, userID, reviewID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return s.recomputeAggregates(ctx, tx, review.ProductID)
	})
}

// Approve marks a review as visible. Admin only.
func (s *ReviewService) Approve(ctx context.Context, reviewID uint) error {
	var review ProductReview
	if err := s.db.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to retrieve review: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&review).Update("is_approved", true).Error; err != nil {
			return fmt.Errorf("failed to approve review: %w", err)
		}
		return s.recomputeAggregates(ctx, tx, review.ProductID)
	})
}

// ListForProduct retrieves approved reviews for a product
func (s *ReviewService) ListForProduct(ctx context.Context, productID uint, page, limit int) ([]ProductReview, int64, error) {
	var reviews []ProductReview
	var total int64

	query := s.db.WithContext(ctx).Model(&ProductReview{}).
		Where("product_id = ? AND is_approved = ?", productID, true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve reviews: %w", err)
	}

	return reviews, total, nil
}

// Private helpers

func (s *ReviewService) getOwned(ctx context.Context, userID, reviewID uint) (*ProductReview, error) {
	var review ProductReview
	if err := s.db.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}

	if review.UserID != userID {
		return nil, ErrNotReviewOwner
	}

	return &review, nil
}

// verifiedOrderID returns an order id when the user has a delivered
// order containing the product. Raw table access avoids importing the
// order package.
func (s *ReviewService) verifiedOrderID(ctx context.Context, userID, productID uint) *uint {
	var orderID uint
	err := s.db.WithContext(ctx).Table("order_items").
		Select("orders.id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status = ?", userID, productID, "delivered").
		Limit(1).
		Scan(&orderID).Error
	if err != nil || orderID == 0 {
		return nil
	}
	return &orderID
}

// recomputeAggregates refreshes the product's approved-review rating
func (s *ReviewService) recomputeAggregates(ctx context.Context, tx *gorm.DB, productID uint) error {
	type aggregate struct {
		Avg   float64
		Count int
	}

	var agg aggregate
	err := tx.WithContext(ctx).Model(&ProductReview{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("failed to compute rating aggregate: %w", err)
	}

	return tx.WithContext(ctx).Model(&Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"rating_average": agg.Avg,
			"rating_count":   agg.Count,
		}).Error
}
