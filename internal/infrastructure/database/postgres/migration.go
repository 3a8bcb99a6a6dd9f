// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// User domain
		&user.User{},
		&user.Address{},

		// Product domain
		&product.Category{},
		&product.Product{},
		&product.ProductImage{},
		&product.ProductReview{},

		// Cart domain
		&cart.CartItem{},

		// Coupon domain
		&coupon.Coupon{},
		&coupon.CouponProduct{},
		&coupon.CouponCategory{},
		&coupon.CouponRedemption{},

		// Order domain
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},

		// Payment domain
		&payment.Payment{},

		// Wishlist domain
		&wishlist.WishlistItem{},

		// Upload domain
		&upload.UploadedFile{},

		// Audit domain
		&audit.AuditLog{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_active ON products(category_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_status_history_order ON order_status_histories(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_approved ON product_reviews(product_id, is_approved)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id)",
	}

	for _, idx := range indexes {
		if err := m.db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds the fallback category and a development admin
// account
func (m *Migration) SeedInitialData(cfg *config.Config) error {
	log.Println("🔄 Seeding initial data...")

	categories := product.NewCategoryService(m.db, cfg, audit.NewService(m.db))
	if _, err := categories.EnsureFallback(context.Background()); err != nil {
		return fmt.Errorf("failed to seed fallback category: %w", err)
	}

	if err := m.seedAdminUser(cfg); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedAdminUser(cfg *config.Config) error {
	var count int64
	if err := m.db.Model(&user.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	admin := &user.User{
		Email:     "admin@example.com",
		Password:  string(hashed),
		FirstName: "Admin",
		LastName:  "User",
		IsActive:  true,
		IsAdmin:   true,
	}

	if err := m.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user: %s", admin.Email)
	return nil
}

// DropAllTables drops every table. Used by development tooling only.
func (m *Migration) DropAllTables() error {
	tables := []string{
		"audit_logs",
		"uploaded_files",
		"wishlist_items",
		"payments",
		"order_status_histories",
		"order_items",
		"orders",
		"coupon_redemptions",
		"coupon_categories",
		"coupon_products",
		"coupons",
		"cart_items",
		"product_reviews",
		"product_images",
		"products",
		"categories",
		"addresses",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}
