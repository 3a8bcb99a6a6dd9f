// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// WishlistItem is a saved product. Removal is a soft delete so the
// item can be restored with its original added-at date.
type WishlistItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID uint            `json:"product_id" gorm:"not null;uniqueIndex:idx_wishlist_user_product"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"deleted_at,omitempty" gorm:"index"`
	Product   product.Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for WishlistItem
func (WishlistItem) TableName() string {
	return "wishlist_items"
}
