// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"gorm.io/gorm"
)

// Coupon discount types
const (
	TypePercentage  = "percentage"
	TypeFixedAmount = "fixed_amount"
)

// Coupon represents a discount code
type Coupon struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Code           string         `json:"code" gorm:"uniqueIndex;not null"`
	Description    string         `json:"description"`
	Type           string         `json:"type" gorm:"not null"` // percentage or fixed_amount
	Value          int64          `json:"value" gorm:"not null"`
	MaxDiscount    int64          `json:"max_discount" gorm:"default:0"`    // cents, 0 = uncapped, percentage only
	MinOrderAmount int64          `json:"min_order_amount" gorm:"default:0"` // cents
	UsageLimit     int            `json:"usage_limit" gorm:"default:0"` // 0 = unlimited
	UsedCount      int            `json:"used_count" gorm:"default:0"`
	StartsAt       *time.Time     `json:"starts_at"`
	ExpiresAt      *time.Time     `json:"expires_at"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	ProductIDs  []CouponProduct  `json:"product_ids,omitempty" gorm:"foreignKey:CouponID"`
	CategoryIDs []CouponCategory `json:"category_ids,omitempty" gorm:"foreignKey:CouponID"`
}

// TableName returns the table name for Coupon
func (Coupon) TableName() string {
	return "coupons"
}

// CouponProduct restricts a coupon to specific products
type CouponProduct struct {
	CouponID  uint `json:"coupon_id" gorm:"primaryKey"`
	ProductID uint `json:"product_id" gorm:"primaryKey"`
}

// TableName returns the table name for CouponProduct
func (CouponProduct) TableName() string {
	return "coupon_products"
}

// CouponCategory restricts a coupon to specific categories
type CouponCategory struct {
	CouponID   uint `json:"coupon_id" gorm:"primaryKey"`
	CategoryID uint `json:"category_id" gorm:"primaryKey"`
}

// TableName returns the table name for CouponCategory
func (CouponCategory) TableName() string {
	return "coupon_categories"
}

// CouponRedemption records a successful use against an order
type CouponRedemption struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CouponID  uint      `json:"coupon_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	OrderID   uint      `json:"order_id" gorm:"not null;uniqueIndex"`
	Discount  int64     `json:"discount" gorm:"not null"` // cents
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for CouponRedemption
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}

// IsWithinWindow reports whether the coupon is valid at the given time
func (c *Coupon) IsWithinWindow(now time.Time) bool {
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

// IsExhausted reports whether the usage limit has been reached
func (c *Coupon) IsExhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}
