// internal/domain/product/category_service_test.go
package product_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/audit"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Category{}, &product.Product{}, &product.ProductImage{}, &product.ProductReview{},
		&cart.CartItem{},
		&order.Order{}, &order.OrderItem{}, &order.OrderStatusHistory{},
		&audit.AuditLog{},
	))
	return db
}

func newCategoryService(db *gorm.DB) *product.CategoryService {
	return product.NewCategoryService(db, &config.Config{}, audit.NewService(db))
}

func seedCategoryProduct(t *testing.T, db *gorm.DB, categoryID uint, sku string, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:       "Widget " + sku,
		SKU:        sku,
		Slug:       "widget-" + sku,
		Price:      1000,
		Stock:      stock,
		CategoryID: categoryID,
		IsActive:   true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCreateCategoryBuildsPath(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	root, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, "/1/", root.Path)

	child, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Phones", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, "/1/2/", child.Path)
}

func TestDeleteCategoryReassignsProducts(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	cat, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Doomed"})
	require.NoError(t, err)
	p := seedCategoryProduct(t, db, cat.ID, "SKU-1", 10)

	require.NoError(t, svc.Delete(context.Background(), cat.ID, 99))

	var reloaded product.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)

	var fallback product.Category
	require.NoError(t, db.Where("name = ?", product.FallbackCategoryName).First(&fallback).Error)
	assert.Equal(t, fallback.ID, reloaded.CategoryID)

	_, err = svc.Get(context.Background(), cat.ID)
	assert.ErrorIs(t, err, product.ErrCategoryNotFound)

	// the deletion was audit logged
	var logs int64
	require.NoError(t, db.Model(&audit.AuditLog{}).Where("action = ?", "category.delete").Count(&logs).Error)
	assert.EqualValues(t, 1, logs)
}

func TestDeleteCategoryPullsCartLines(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	cat, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Doomed"})
	require.NoError(t, err)
	p := seedCategoryProduct(t, db, cat.ID, "SKU-1", 7) // 3 of 10 reserved in a cart

	require.NoError(t, db.Create(&cart.CartItem{UserID: 1, ProductID: p.ID, Quantity: 3, UnitPrice: 1000}).Error)

	require.NoError(t, svc.Delete(context.Background(), cat.ID, 99))

	var lines int64
	require.NoError(t, db.Model(&cart.CartItem{}).Where("product_id = ?", p.ID).Count(&lines).Error)
	assert.EqualValues(t, 0, lines)

	// reserved stock came back
	var reloaded product.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestDeleteCategoryBlockedByOpenOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	cat, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Doomed"})
	require.NoError(t, err)
	p := seedCategoryProduct(t, db, cat.ID, "SKU-1", 10)

	ord := &order.Order{OrderNumber: "ORD-TEST-1", UserID: 1, Status: order.StatusPending, PaymentStatus: order.PaymentStatusPending}
	require.NoError(t, db.Create(ord).Error)
	require.NoError(t, db.Create(&order.OrderItem{OrderID: ord.ID, ProductID: p.ID, ProductName: p.Name, UnitPrice: 1000, Quantity: 1, Total: 1000}).Error)

	err = svc.Delete(context.Background(), cat.ID, 99)
	assert.ErrorIs(t, err, product.ErrCategoryInUse)

	// cancelled orders do not block
	require.NoError(t, db.Model(ord).Update("status", order.StatusCancelled).Error)
	assert.NoError(t, svc.Delete(context.Background(), cat.ID, 99))
}

func TestDeleteFallbackCategoryRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	fallback, err := svc.EnsureFallback(context.Background())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), fallback.ID, 99)
	assert.ErrorIs(t, err, product.ErrFallbackCategory)
}

func TestCategoryTree(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	root, err := svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &product.CreateCategoryRequest{Name: "Phones", ParentID: &root.ID})
	require.NoError(t, err)

	tree, err := svc.Tree(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Phones", tree[0].Children[0].Name)
}
