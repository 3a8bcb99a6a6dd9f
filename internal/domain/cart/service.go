// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when the product is missing or inactive
	ErrProductNotFound = errors.New("product not found")
	// ErrItemNotFound is returned for a missing cart line
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInsufficientStock is returned when the requested quantity cannot be reserved
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCartLimitExceeded is returned when the cart holds too many distinct products
	ErrCartLimitExceeded = errors.New("cart item limit exceeded")
	// ErrQuantityLimitExceeded is returned when a line exceeds the per-item cap
	ErrQuantityLimitExceeded = errors.New("quantity limit exceeded")
	// ErrInvalidQuantity is returned for zero or negative quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Service handles cart business logic. Stock is reserved at add time:
// adding a line conditionally decrements product stock, and removing
// it puts the quantity back. Checkout therefore never touches stock.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddToCartRequest represents add to cart data
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a quantity change for an existing line
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=0"`
}

// Get retrieves the user's cart with totals
func (s *Service) Get(ctx context.Context, userID uint) (*CartResponse, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Images").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return s.buildResponse(items), nil
}

// AddToCart adds a product to the cart or increases an existing line,
// reserving stock in the same transaction
func (s *Service) AddToCart(ctx context.Context, userID uint, req *AddToCartRequest) (*CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod product.Product
		if err := tx.Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to retrieve product: %w", err)
		}

		var item CartItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
		switch {
		case err == nil:
			newQuantity := item.Quantity + req.Quantity
			if newQuantity > s.config.Cart.MaxQuantityPerItem {
				return ErrQuantityLimitExceeded
			}
			if err := s.reserveStock(tx, req.ProductID, req.Quantity); err != nil {
				return err
			}
			if err := tx.Model(&item).Update("quantity", newQuantity).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			var count int64
			if err := tx.Model(&CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count cart items: %w", err)
			}
			if int(count) >= s.config.Cart.MaxItems {
				return ErrCartLimitExceeded
			}
			if req.Quantity > s.config.Cart.MaxQuantityPerItem {
				return ErrQuantityLimitExceeded
			}
			if err := s.reserveStock(tx, req.ProductID, req.Quantity); err != nil {
				return err
			}
			item = CartItem{
				UserID:    userID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				UnitPrice: prod.Price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create cart item: %w", err)
			}
		default:
			return fmt.Errorf("failed to retrieve cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// UpdateItem sets a line to an absolute quantity, reserving or
// releasing the stock difference. Quantity zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, productID uint, req *UpdateItemRequest) (*CartResponse, error) {
	if req.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if req.Quantity > s.config.Cart.MaxQuantityPerItem {
		return nil, ErrQuantityLimitExceeded
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item CartItem
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to retrieve cart item: %w", err)
		}

		delta := req.Quantity - item.Quantity
		switch {
		case delta > 0:
			if err := s.reserveStock(tx, productID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := s.releaseStock(tx, productID, -delta); err != nil {
				return err
			}
		default:
			return nil
		}

		if err := tx.Model(&item).Update("quantity", req.Quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes a line and releases its reserved stock
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) (*CartResponse, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item CartItem
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to retrieve cart item: %w", err)
		}
		if err := s.releaseStock(tx, productID, item.Quantity); err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return fmt.Errorf("failed to delete cart item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Clear empties the cart and releases all reserved stock
func (s *Service) Clear(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []CartItem
		if err := tx.Where("user_id = ?", userID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to retrieve cart items: %w", err)
		}
		for _, item := range items {
			if err := s.releaseStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// ItemsForCheckout loads the cart lines with products, without totals
func (s *Service) ItemsForCheckout(ctx context.Context, tx *gorm.DB, userID uint) ([]CartItem, error) {
	db := tx
	if db == nil {
		db = s.db.WithContext(ctx)
	}
	var items []CartItem
	if err := db.Preload("Product").Preload("Product.Images").Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}
	return items, nil
}

// DeleteItems removes checked-out lines without releasing stock; the
// reservation is handed over to the order
func (s *Service) DeleteItems(ctx context.Context, tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// reserveStock conditionally decrements product stock
func (s *Service) reserveStock(tx *gorm.DB, productID uint, quantity int) error {
	result := tx.Model(&product.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// releaseStock returns reserved quantity to the product
func (s *Service) releaseStock(tx *gorm.DB, productID uint, quantity int) error {
	result := tx.Model(&product.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to release stock: %w", result.Error)
	}
	return nil
}

func (s *Service) buildResponse(items []CartItem) *CartResponse {
	resp := &CartResponse{
		Items:    items,
		Currency: "usd",
	}
	for _, item := range items {
		resp.ItemCount++
		resp.TotalQuantity += item.Quantity
		resp.Subtotal += item.LineTotal()
	}
	resp.TotalAmount = resp.Subtotal
	if resp.Items == nil {
		resp.Items = []CartItem{}
	}
	return resp
}
