// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// FallbackCategoryName is the category that absorbs products of
// deleted categories. It cannot itself be deleted.
const FallbackCategoryName = "Uncategorized"

// Product represents the product entity. Stock is mutated only by
// cart reservation/release and order cancellation restore.
type Product struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SKU          string `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string `gorm:"not null;size:255" json:"name"`
	Slug         string `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description  string `gorm:"type:text" json:"description"`
	Price        int64  `gorm:"not null" json:"price"`  // Price in cents
	ComparePrice int64  `json:"compare_price"`          // Pre-discount price for display
	Stock        int    `gorm:"default:0;check:stock >= 0" json:"stock"`
	CategoryID   uint   `gorm:"not null;index" json:"category_id"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	IsFeatured   bool   `gorm:"default:false" json:"is_featured"`

	// Review aggregates, recomputed by the review service on write
	RatingAverage float64 `gorm:"default:0" json:"rating_average"`
	RatingCount   int     `gorm:"default:0" json:"rating_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Images   []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// Category represents product categories as a tree. Path is the
// materialized ancestor list ("/1/4/9/") kept in sync on every write
// for fast subtree lookups.
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	ParentID    *uint          `gorm:"index" json:"parent_id"`
	Path        string         `gorm:"index;size:500" json:"path"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// ProductImage represents product images served from local storage
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	IsPrimary bool      `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductReview represents customer reviews
type ProductReview struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProductID  uint           `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	OrderID    *uint          `gorm:"index" json:"order_id,omitempty"` // Link to verified purchase
	Rating     int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Title      string         `gorm:"size:255" json:"title"`
	Content    string         `gorm:"type:text" json:"content"`
	IsVerified bool           `gorm:"default:false" json:"is_verified"`
	IsApproved bool           `gorm:"default:false" json:"is_approved"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string       { return "products" }
func (Category) TableName() string      { return "categories" }
func (ProductImage) TableName() string  { return "product_images" }
func (ProductReview) TableName() string { return "product_reviews" }

// IsInStock reports whether the product has units available
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// GetDiscountPercentage returns the display discount derived from the
// compare price
func (p *Product) GetDiscountPercentage() int {
	if p.ComparePrice > 0 && p.Price < p.ComparePrice {
		return int(((p.ComparePrice - p.Price) * 100) / p.ComparePrice)
	}
	return 0
}

// IsFallback reports whether this is the category deletions fall back to
func (c *Category) IsFallback() bool {
	return c.Name == FallbackCategoryName
}
