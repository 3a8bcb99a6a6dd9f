// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"gorm.io/gorm"
)

var (
	// ErrEmptyCart is returned when checking out with no cart lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAddressRequired is returned when no shipping address is given
	ErrAddressRequired = errors.New("shipping address required")
)

// Line validation reasons
const (
	ReasonProductMissing  = "product_no_longer_available"
	ReasonProductInactive = "product_inactive"
)

// LineError describes why one cart line failed validation
type LineError struct {
	ProductID uint   `json:"product_id"`
	Reason    string `json:"reason"`
}

// ValidationError aggregates the per-line failures of a checkout
// attempt
type ValidationError struct {
	Lines []LineError `json:"lines"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout validation failed for %d cart line(s)", len(e.Lines))
}

// Service orchestrates the checkout transaction
type Service struct {
	db         *gorm.DB
	config     *config.Config
	carts      *cart.Service
	coupons    *coupon.Service
	addresses  *user.AddressService
	dispatcher queue.Dispatcher
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, carts *cart.Service, coupons *coupon.Service, addresses *user.AddressService, dispatcher queue.Dispatcher) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		carts:      carts,
		coupons:    coupons,
		addresses:  addresses,
		dispatcher: dispatcher,
	}
}

// AddressInput is an inline shipping address for guests without a
// saved one
type AddressInput struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required,len=2"`
	Phone        string `json:"phone"`
}

// CheckoutRequest represents checkout input
type CheckoutRequest struct {
	ShippingAddressID uint          `json:"shipping_address_id"`
	ShippingAddress   *AddressInput `json:"shipping_address"`
	CouponCode        string        `json:"coupon_code"`
	Notes             string        `json:"notes"`
}

// Checkout converts the user's cart into an order. Everything up to
// and including the cart cleanup happens in one transaction; the
// confirmation email job is enqueued only after commit.
func (s *Service) Checkout(ctx context.Context, userID uint, req *CheckoutRequest) (*order.Order, error) {
	address, err := s.resolveAddress(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	var created *order.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.carts.ItemsForCheckout(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		if err := validateLines(items); err != nil {
			return err
		}

		var subtotal int64
		for _, item := range items {
			subtotal += item.LineTotal()
		}

		var discount int64
		var appliedCoupon *coupon.Coupon
		if req.CouponCode != "" {
			lines := make([]coupon.EligibleLine, 0, len(items))
			for _, item := range items {
				lines = append(lines, coupon.EligibleLine{
					ProductID:  item.ProductID,
					CategoryID: item.Product.CategoryID,
					LineTotal:  item.LineTotal(),
				})
			}
			applied, err := s.coupons.Validate(ctx, req.CouponCode, subtotal, lines)
			if err != nil {
				return err
			}
			discount = applied.Discount
			appliedCoupon = applied.Coupon
		}

		ord := &order.Order{
			OrderNumber:    order.GenerateOrderNumber(),
			UserID:         userID,
			Status:         order.StatusPending,
			PaymentStatus:  order.PaymentStatusPending,
			Subtotal:       subtotal,
			DiscountAmount: discount,
			TotalAmount:    subtotal - discount,
			Currency:       "usd",
			Notes:          req.Notes,

			ShippingFirstName:    address.FirstName,
			ShippingLastName:     address.LastName,
			ShippingAddressLine1: address.AddressLine1,
			ShippingAddressLine2: address.AddressLine2,
			ShippingCity:         address.City,
			ShippingState:        address.State,
			ShippingPostalCode:   address.PostalCode,
			ShippingCountry:      address.Country,
			ShippingPhone:        address.Phone,
		}
		if appliedCoupon != nil {
			ord.CouponCode = appliedCoupon.Code
		}
		for _, item := range items {
			ord.Items = append(ord.Items, order.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				ProductSKU:  item.Product.SKU,
				CategoryID:  item.Product.CategoryID,
				ImageURL:    primaryImageURL(&item.Product),
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
				Total:       item.LineTotal(),
			})
		}

		if err := tx.Create(ord).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		if appliedCoupon != nil {
			if err := s.coupons.Redeem(ctx, tx, appliedCoupon, userID, ord.ID, discount); err != nil {
				return err
			}
		}

		history := order.OrderStatusHistory{
			OrderID:  ord.ID,
			ToStatus: order.StatusPending,
			Comment:  "order created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}

		// stock stays reserved by the order; lines are just removed
		if err := s.carts.DeleteItems(ctx, tx, userID); err != nil {
			return err
		}

		created = ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Enqueue(ctx, queue.JobOrderConfirmation, map[string]interface{}{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"user_id":      created.UserID,
	}); err != nil {
		logrus.WithError(err).WithField("order_id", created.ID).Warn("Failed to enqueue order confirmation")
	}

	return created, nil
}

// resolveAddress loads the saved address or accepts the inline one
func (s *Service) resolveAddress(ctx context.Context, userID uint, req *CheckoutRequest) (*AddressInput, error) {
	if req.ShippingAddressID > 0 {
		saved, err := s.addresses.Get(ctx, userID, req.ShippingAddressID)
		if err != nil {
			return nil, err
		}
		return &AddressInput{
			FirstName:    saved.FirstName,
			LastName:     saved.LastName,
			AddressLine1: saved.AddressLine1,
			AddressLine2: saved.AddressLine2,
			City:         saved.City,
			State:        saved.State,
			PostalCode:   saved.PostalCode,
			Country:      saved.Country,
			Phone:        saved.Phone,
		}, nil
	}
	if req.ShippingAddress != nil {
		return req.ShippingAddress, nil
	}
	return nil, ErrAddressRequired
}

// validateLines re-checks every cart line against the live product
// and collects all failures instead of stopping at the first
func validateLines(items []cart.CartItem) error {
	var lineErrors []LineError
	for _, item := range items {
		switch {
		case item.Product.ID == 0:
			lineErrors = append(lineErrors, LineError{ProductID: item.ProductID, Reason: ReasonProductMissing})
		case !item.Product.IsActive:
			lineErrors = append(lineErrors, LineError{ProductID: item.ProductID, Reason: ReasonProductInactive})
		}
	}
	if len(lineErrors) > 0 {
		return &ValidationError{Lines: lineErrors}
	}
	return nil
}

func primaryImageURL(p *product.Product) string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}
