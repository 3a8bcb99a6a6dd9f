// internal/domain/cart/service_test.go
package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
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
	require.NoError(t, db.AutoMigrate(&product.Category{}, &product.Product{}, &product.ProductImage{}, &CartItem{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Cart: config.CartConfig{
			MaxItems:           3,
			MaxQuantityPerItem: 10,
		},
	}
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, price int64) *product.Product {
	t.Helper()
	p := &product.Product{
		Name:     "Test Product",
		SKU:      "SKU-" + t.Name(),
		Slug:     "test-product-" + t.Name(),
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestAddToCartReservesStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 5, 1500)

	resp, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, productStock(t, db, p.ID))
	assert.Equal(t, 3, resp.TotalQuantity)
	assert.Equal(t, int64(4500), resp.Subtotal)
}

func TestUpdateItemAdjustsReservation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 5, 1000)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	// raise to the full stock
	resp, err := svc.UpdateItem(context.Background(), 1, p.ID, &UpdateItemRequest{Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, productStock(t, db, p.ID))
	assert.Equal(t, 5, resp.TotalQuantity)

	// one more than exists fails and leaves everything as it was
	_, err = svc.UpdateItem(context.Background(), 1, p.ID, &UpdateItemRequest{Quantity: 6})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 0, productStock(t, db, p.ID))

	current, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, current.TotalQuantity)

	// lowering releases the difference
	_, err = svc.UpdateItem(context.Background(), 1, p.ID, &UpdateItemRequest{Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, productStock(t, db, p.ID))
}

func TestUpdateItemToZeroRemovesLine(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 5, 1000)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := svc.UpdateItem(context.Background(), 1, p.ID, &UpdateItemRequest{Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 5, productStock(t, db, p.ID))
}

func TestRemoveItemReleasesStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 4, 1000)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, productStock(t, db, p.ID))

	resp, err := svc.RemoveItem(context.Background(), 1, p.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 4, productStock(t, db, p.ID))
}

func TestAddToCartInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 2, 1000)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, productStock(t, db, p.ID))

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestAddToCartMergesExistingLine(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p := seedProduct(t, db, 10, 2000)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	resp, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)
	assert.Equal(t, 5, productStock(t, db, p.ID))
}

func TestCartLimits(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	svc := NewService(db, cfg)

	var products []*product.Product
	for i := 0; i < cfg.Cart.MaxItems+1; i++ {
		p := &product.Product{
			Name:     fmt.Sprintf("Product %d", i),
			SKU:      fmt.Sprintf("SKU-%d", i),
			Slug:     fmt.Sprintf("product-%d", i),
			Price:    1000,
			Stock:    20,
			IsActive: true,
		}
		require.NoError(t, db.Create(p).Error)
		products = append(products, p)
	}

	for i := 0; i < cfg.Cart.MaxItems; i++ {
		_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: products[i].ID, Quantity: 1})
		require.NoError(t, err)
	}

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: products[cfg.Cart.MaxItems].ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrCartLimitExceeded)

	_, err = svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: products[0].ID, Quantity: cfg.Cart.MaxQuantityPerItem})
	assert.ErrorIs(t, err, ErrQuantityLimitExceeded)
}

func TestClearReleasesAllStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, testConfig())
	p1 := seedProduct(t, db, 5, 1000)
	p2 := &product.Product{Name: "Other", SKU: "SKU-other", Slug: "other", Price: 500, Stock: 8, IsActive: true}
	require.NoError(t, db.Create(p2).Error)

	_, err := svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p1.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddToCart(context.Background(), 1, &AddToCartRequest{ProductID: p2.ID, Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), 1))

	assert.Equal(t, 5, productStock(t, db, p1.ID))
	assert.Equal(t, 8, productStock(t, db, p2.ID))

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}
