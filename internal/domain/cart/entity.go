// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// CartItem represents one product line in a user's cart. Stock for the
// quantity is already reserved, so lines are never soft-deleted.
type CartItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	ProductID uint            `json:"product_id" gorm:"not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice int64           `json:"unit_price" gorm:"not null"` // snapshot in cents at add time
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Product   product.Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for CartItem
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns the line amount in cents
func (c *CartItem) LineTotal() int64 {
	return c.UnitPrice * int64(c.Quantity)
}

// CartResponse represents the cart with computed totals
type CartResponse struct {
	Items         []CartItem `json:"items"`
	ItemCount     int        `json:"item_count"`     // distinct lines
	TotalQuantity int        `json:"total_quantity"` // sum of quantities
	Subtotal      int64      `json:"subtotal"`
	TotalAmount   int64      `json:"total_amount"`
	Currency      string     `json:"currency"`
}
