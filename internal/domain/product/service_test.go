// internal/domain/product/service_test.go
package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

func TestCreateProductGeneratesUniqueSlug(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, &config.Config{})

	cat := &product.Category{Name: "Gadgets", Slug: "gadgets", IsActive: true}
	require.NoError(t, db.Create(cat).Error)

	first, err := svc.Create(context.Background(), &product.CreateProductRequest{
		SKU: "SKU-1", Name: "Cool Widget", Price: 1000, Stock: 5, CategoryID: cat.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "cool-widget", first.Slug)

	second, err := svc.Create(context.Background(), &product.CreateProductRequest{
		SKU: "SKU-2", Name: "Cool Widget", Price: 2000, Stock: 5, CategoryID: cat.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "cool-widget-2", second.Slug)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, &config.Config{})

	cat := &product.Category{Name: "Gadgets", Slug: "gadgets", IsActive: true}
	require.NoError(t, db.Create(cat).Error)

	_, err := svc.Create(context.Background(), &product.CreateProductRequest{
		SKU: "SKU-1", Name: "Widget", Price: 1000, CategoryID: cat.ID,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &product.CreateProductRequest{
		SKU: "SKU-1", Name: "Other Widget", Price: 2000, CategoryID: cat.ID,
	})
	assert.ErrorIs(t, err, product.ErrSKUTaken)
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	db := setupTestDB(t)
	svc := product.NewService(db, &config.Config{})

	cat := &product.Category{Name: "Gadgets", Slug: "gadgets", IsActive: true}
	require.NoError(t, db.Create(cat).Error)
	p := seedCategoryProduct(t, db, cat.ID, "SKU-1", 5)

	updated, err := svc.AdjustStock(context.Background(), p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)

	_, err = svc.AdjustStock(context.Background(), p.ID, -3)
	assert.ErrorIs(t, err, product.ErrStockNegative)

	var reloaded product.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "cool-widget", product.Slugify("  Cool Widget!  "))
	assert.Equal(t, "a-b-c", product.Slugify("A/B/C"))
}
