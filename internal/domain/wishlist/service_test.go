// internal/domain/wishlist/service_test.go
package wishlist

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Category{}, &product.Product{}, &product.ProductImage{},
		&cart.CartItem{}, &WishlistItem{},
	))

	cfg := &config.Config{Cart: config.CartConfig{MaxItems: 50, MaxQuantityPerItem: 10}}
	return NewService(db, cfg, cart.NewService(db, cfg)), db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *product.Product {
	t.Helper()
	p := &product.Product{Name: "Wished", SKU: "WISH-1", Slug: "wished", Price: 900, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestAddIsIdempotent(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 3)

	first, err := svc.Add(context.Background(), 1, p.ID)
	require.NoError(t, err)
	second, err := svc.Add(context.Background(), 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	items, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemoveTombstonesAndRestoreResurrects(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 3)
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, 1, p.ID))

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	deleted, err := svc.ListDeleted(ctx, 1)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].DeletedAt.Valid)

	restored, err := svc.Restore(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, restored.ID)

	items, err = svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddResurrectsTombstone(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 3)
	ctx := context.Background()

	added, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, 1, p.ID))

	// re-adding the same product reuses the tombstoned row
	back, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, back.ID)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestHardDeleteRemovesRow(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 3)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, 1, p.ID))
	require.NoError(t, svc.HardDelete(ctx, 1, p.ID))

	deleted, err := svc.ListDeleted(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	_, err = svc.Restore(ctx, 1, p.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestMoveToCart(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 3)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)

	resp, err := svc.MoveToCart(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	var prod product.Product
	require.NoError(t, db.First(&prod, p.ID).Error)
	assert.Equal(t, 1, prod.Stock)
}

func TestMoveToCartInsufficientStockKeepsWish(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, 1)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, p.ID)
	require.NoError(t, err)

	_, err = svc.MoveToCart(ctx, 1, p.ID, 5)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	items, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
