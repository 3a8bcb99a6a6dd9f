// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

var (
	// ErrCouponNotFound is returned for an unknown code
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponInactive is returned for a disabled coupon
	ErrCouponInactive = errors.New("coupon is not active")
	// ErrCouponNotStarted is returned before the validity window opens
	ErrCouponNotStarted = errors.New("coupon is not yet valid")
	// ErrCouponExpired is returned after the validity window closes
	ErrCouponExpired = errors.New("coupon has expired")
	// ErrCouponExhausted is returned when the usage limit is reached
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	// ErrMinOrderNotMet is returned when the order is below the minimum
	ErrMinOrderNotMet = errors.New("order amount below coupon minimum")
	// ErrCouponNotApplicable is returned when no cart line matches the restrictions
	ErrCouponNotApplicable = errors.New("coupon does not apply to these products")
	// ErrCodeTaken is returned when creating a duplicate code
	ErrCodeTaken = errors.New("coupon code already exists")
)

// EligibleLine is the slice of an order a coupon can discount
type EligibleLine struct {
	ProductID  uint
	CategoryID uint
	LineTotal  int64
}

// Service handles coupon business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	now    func() time.Time
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		now:    time.Now,
	}
}

// CreateCouponRequest represents coupon creation data
type CreateCouponRequest struct {
	Code           string     `json:"code" binding:"required,min=3,max=32"`
	Description    string     `json:"description"`
	Type           string     `json:"type" binding:"required,oneof=percentage fixed_amount"`
	Value          int64      `json:"value" binding:"required,min=1"`
	MaxDiscount    int64      `json:"max_discount" binding:"min=0"`
	MinOrderAmount int64      `json:"min_order_amount" binding:"min=0"`
	UsageLimit     int        `json:"usage_limit" binding:"min=0"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       *bool      `json:"is_active"`
	ProductIDs     []uint     `json:"product_ids"`
	CategoryIDs    []uint     `json:"category_ids"`
}

// UpdateCouponRequest represents coupon update data
type UpdateCouponRequest struct {
	Description    *string    `json:"description"`
	Value          *int64     `json:"value" binding:"omitempty,min=1"`
	MaxDiscount    *int64     `json:"max_discount" binding:"omitempty,min=0"`
	MinOrderAmount *int64     `json:"min_order_amount" binding:"omitempty,min=0"`
	UsageLimit     *int       `json:"usage_limit" binding:"omitempty,min=0"`
	StartsAt       *time.Time `json:"starts_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	IsActive       *bool      `json:"is_active"`
}

// AppliedCoupon is the outcome of a successful validation
type AppliedCoupon struct {
	Coupon   *Coupon `json:"coupon"`
	Discount int64   `json:"discount"` // cents
}

// NormalizeCode upper-cases and trims a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GetByCode retrieves a coupon by its normalized code
func (s *Service) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	var coupon Coupon
	err := s.db.WithContext(ctx).
		Preload("ProductIDs").
		Preload("CategoryIDs").
		Where("code = ?", NormalizeCode(code)).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &coupon, nil
}

// Validate checks a coupon against the cart and computes the discount.
// Checks run in a fixed order so the caller always sees the most
// specific failure: existence, active, window, usage, minimum,
// restrictions.
func (s *Service) Validate(ctx context.Context, code string, subtotal int64, lines []EligibleLine) (*AppliedCoupon, error) {
	coupon, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}

	now := s.now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, ErrCouponNotStarted
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return nil, ErrCouponExpired
	}
	if coupon.IsExhausted() {
		return nil, ErrCouponExhausted
	}
	if coupon.MinOrderAmount > 0 && subtotal < coupon.MinOrderAmount {
		return nil, ErrMinOrderNotMet
	}

	base, err := s.eligibleBase(coupon, subtotal, lines)
	if err != nil {
		return nil, err
	}

	return &AppliedCoupon{
		Coupon:   coupon,
		Discount: ComputeDiscount(coupon, base),
	}, nil
}

// Redeem consumes one use inside the caller's transaction. The
// conditional update makes concurrent checkouts race safely on the
// last remaining use.
func (s *Service) Redeem(ctx context.Context, tx *gorm.DB, coupon *Coupon, userID, orderID uint, discount int64) error {
	query := tx.Model(&Coupon{}).Where("id = ?", coupon.ID)
	if coupon.UsageLimit > 0 {
		query = query.Where("used_count < usage_limit")
	}
	result := query.UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to redeem coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCouponExhausted
	}

	redemption := CouponRedemption{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
		Discount: discount,
	}
	if err := tx.Create(&redemption).Error; err != nil {
		return fmt.Errorf("failed to record redemption: %w", err)
	}
	return nil
}

// ComputeDiscount returns the discount in cents for the eligible base
// amount, clamped to the coupon's max-discount cap and never exceeding
// the base
func ComputeDiscount(coupon *Coupon, base int64) int64 {
	var discount int64
	switch coupon.Type {
	case TypePercentage:
		discount = base * coupon.Value / 100
	case TypeFixedAmount:
		discount = coupon.Value
	}
	if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
		discount = coupon.MaxDiscount
	}
	if discount > base {
		discount = base
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// eligibleBase returns the amount the discount applies to. Unrestricted
// coupons discount the whole subtotal; restricted ones only the
// matching lines.
func (s *Service) eligibleBase(coupon *Coupon, subtotal int64, lines []EligibleLine) (int64, error) {
	if len(coupon.ProductIDs) == 0 && len(coupon.CategoryIDs) == 0 {
		return subtotal, nil
	}

	productSet := make(map[uint]bool, len(coupon.ProductIDs))
	for _, p := range coupon.ProductIDs {
		productSet[p.ProductID] = true
	}
	categorySet := make(map[uint]bool, len(coupon.CategoryIDs))
	for _, c := range coupon.CategoryIDs {
		categorySet[c.CategoryID] = true
	}

	var base int64
	for _, line := range lines {
		if productSet[line.ProductID] || categorySet[line.CategoryID] {
			base += line.LineTotal
		}
	}
	if base == 0 {
		return 0, ErrCouponNotApplicable
	}
	return base, nil
}

// Create creates a new coupon
func (s *Service) Create(ctx context.Context, req *CreateCouponRequest) (*Coupon, error) {
	code := NormalizeCode(req.Code)

	var count int64
	if err := s.db.WithContext(ctx).Model(&Coupon{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}
	if count > 0 {
		return nil, ErrCodeTaken
	}

	coupon := Coupon{
		Code:           code,
		Description:    req.Description,
		Type:           req.Type,
		Value:          req.Value,
		MaxDiscount:    req.MaxDiscount,
		MinOrderAmount: req.MinOrderAmount,
		UsageLimit:     req.UsageLimit,
		StartsAt:       req.StartsAt,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	for _, id := range req.ProductIDs {
		coupon.ProductIDs = append(coupon.ProductIDs, CouponProduct{ProductID: id})
	}
	for _, id := range req.CategoryIDs {
		coupon.CategoryIDs = append(coupon.CategoryIDs, CouponCategory{CategoryID: id})
	}

	if err := s.db.WithContext(ctx).Create(&coupon).Error; err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return &coupon, nil
}

// Update updates coupon fields. The code and type are immutable after
// creation.
func (s *Service) Update(ctx context.Context, couponID uint, req *UpdateCouponRequest) (*Coupon, error) {
	var coupon Coupon
	if err := s.db.WithContext(ctx).First(&coupon, couponID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.MaxDiscount != nil {
		updates["max_discount"] = *req.MaxDiscount
	}
	if req.MinOrderAmount != nil {
		updates["min_order_amount"] = *req.MinOrderAmount
	}
	if req.UsageLimit != nil {
		updates["usage_limit"] = *req.UsageLimit
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.ExpiresAt != nil {
		updates["expires_at"] = *req.ExpiresAt
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&coupon).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update coupon: %w", err)
		}
	}
	return &coupon, nil
}

// List retrieves all coupons, newest first
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Coupon, error) {
	query := s.db.WithContext(ctx).Preload("ProductIDs").Preload("CategoryIDs")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var coupons []Coupon
	if err := query.Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve coupons: %w", err)
	}
	return coupons, nil
}

// Delete soft-deletes a coupon; past redemptions stay on record
func (s *Service) Delete(ctx context.Context, couponID uint) error {
	result := s.db.WithContext(ctx).Delete(&Coupon{}, couponID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCouponNotFound
	}
	return nil
}
