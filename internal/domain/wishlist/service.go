// internal/domain/wishlist/service.go
package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrItemNotFound is returned for missing or foreign wishlist items
	ErrItemNotFound = errors.New("wishlist item not found")
	// ErrProductNotFound is returned when wishing for a missing product
	ErrProductNotFound = errors.New("product not found")
)

// Service handles wishlist business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	carts  *cart.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, cfg *config.Config, carts *cart.Service) *Service {
	return &Service{
		db:     db,
		config: cfg,
		carts:  carts,
	}
}

// List retrieves the user's active wishlist
func (s *Service) List(ctx context.Context, userID uint) ([]WishlistItem, error) {
	var items []WishlistItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist: %w", err)
	}
	return items, nil
}

// ListDeleted retrieves the user's tombstoned items
func (s *Service) ListDeleted(ctx context.Context, userID uint) ([]WishlistItem, error) {
	var items []WishlistItem
	err := s.db.WithContext(ctx).Unscoped().
		Preload("Product").
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve deleted wishlist items: %w", err)
	}
	return items, nil
}

// Add puts a product on the wishlist. A tombstoned entry for the same
// product is resurrected instead of violating the unique index.
func (s *Service) Add(ctx context.Context, userID, productID uint) (*WishlistItem, error) {
	var prod product.Product
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", productID, true).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	var item WishlistItem
	err := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	switch {
	case err == nil:
		if item.DeletedAt.Valid {
			return s.restore(ctx, &item)
		}
		return &item, nil // idempotent
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = WishlistItem{UserID: userID, ProductID: productID}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create wishlist item: %w", err)
		}
		return &item, nil
	default:
		return nil, fmt.Errorf("failed to retrieve wishlist item: %w", err)
	}
}

// Remove tombstones a wishlist item
func (s *Service) Remove(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&WishlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Restore resurrects a tombstoned item
func (s *Service) Restore(ctx context.Context, userID, productID uint) (*WishlistItem, error) {
	var item WishlistItem
	err := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND product_id = ? AND deleted_at IS NOT NULL", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve wishlist item: %w", err)
	}
	return s.restore(ctx, &item)
}

// HardDelete removes an item permanently, tombstoned or not
func (s *Service) HardDelete(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&WishlistItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete wishlist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MoveToCart adds the wished product to the cart and tombstones the
// wishlist entry on success
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, quantity int) (*cart.CartResponse, error) {
	var item WishlistItem
	err := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve wishlist item: %w", err)
	}

	if quantity < 1 {
		quantity = 1
	}
	resp, err := s.carts.AddToCart(ctx, userID, &cart.AddToCartRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return resp, nil
}

func (s *Service) restore(ctx context.Context, item *WishlistItem) (*WishlistItem, error) {
	if err := s.db.WithContext(ctx).Unscoped().Model(item).Update("deleted_at", nil).Error; err != nil {
		return nil, fmt.Errorf("failed to restore wishlist item: %w", err)
	}
	item.DeletedAt = gorm.DeletedAt{}
	return item, nil
}
