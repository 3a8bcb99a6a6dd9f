// internal/domain/product/review_service_test.go
package product_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

func newReviewEnv(t *testing.T) (*gorm.DB, *product.ReviewService, *product.Product) {
	t.Helper()
	db := setupTestDB(t)

	cat := &product.Category{Name: "Gadgets", Slug: "gadgets", IsActive: true}
	require.NoError(t, db.Create(cat).Error)
	p := seedCategoryProduct(t, db, cat.ID, "SKU-R1", 10)

	return db, product.NewReviewService(db, &config.Config{}), p
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, userID, productID uint) *order.Order {
	t.Helper()
	ord := &order.Order{OrderNumber: "ORD-" + t.Name(), UserID: userID, Status: order.StatusDelivered, PaymentStatus: order.PaymentStatusPaid}
	require.NoError(t, db.Create(ord).Error)
	require.NoError(t, db.Create(&order.OrderItem{OrderID: ord.ID, ProductID: productID, ProductName: "Widget", UnitPrice: 1000, Quantity: 1, Total: 1000}).Error)
	return ord
}

func TestCreateReviewUnverified(t *testing.T) {
	_, svc, p := newReviewEnv(t)

	review, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 4, Title: "Good"})
	require.NoError(t, err)
	assert.False(t, review.IsVerified)
	assert.Nil(t, review.OrderID)
	assert.False(t, review.IsApproved)
}

func TestCreateReviewVerifiedPurchase(t *testing.T) {
	db, svc, p := newReviewEnv(t)
	ord := seedDeliveredOrder(t, db, 1, p.ID)

	review, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)
	assert.True(t, review.IsVerified)
	require.NotNil(t, review.OrderID)
	assert.Equal(t, ord.ID, *review.OrderID)
}

func TestCreateReviewDuplicateRejected(t *testing.T) {
	_, svc, p := newReviewEnv(t)

	_, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 2})
	assert.ErrorIs(t, err, product.ErrAlreadyReviewed)
}

func TestApproveRecomputesAggregates(t *testing.T) {
	db, svc, p := newReviewEnv(t)

	r1, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)
	r2, err := svc.Create(context.Background(), 2, &product.CreateReviewRequest{ProductID: p.ID, Rating: 3})
	require.NoError(t, err)

	// unapproved reviews do not count
	var reloaded product.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 0, reloaded.RatingCount)

	require.NoError(t, svc.Approve(context.Background(), r1.ID))
	require.NoError(t, svc.Approve(context.Background(), r2.ID))

	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 2, reloaded.RatingCount)
	assert.InDelta(t, 4.0, reloaded.RatingAverage, 0.001)
}

func TestUpdateReviewResetsApproval(t *testing.T) {
	db, svc, p := newReviewEnv(t)

	review, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(context.Background(), review.ID))

	newRating := 2
	_, err = svc.Update(context.Background(), 1, review.ID, &product.UpdateReviewRequest{Rating: &newRating})
	require.NoError(t, err)

	var reloaded product.ProductReview
	require.NoError(t, db.First(&reloaded, review.ID).Error)
	assert.False(t, reloaded.IsApproved)

	// aggregate dropped back to zero approved reviews
	var prod product.Product
	require.NoError(t, db.First(&prod, p.ID).Error)
	assert.Equal(t, 0, prod.RatingCount)
}

func TestUpdateReviewOwnershipEnforced(t *testing.T) {
	_, svc, p := newReviewEnv(t)

	review, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)

	rating := 1
	_, err = svc.Update(context.Background(), 2, review.ID, &product.UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, product.ErrNotReviewOwner)

	err = svc.Delete(context.Background(), 2, review.ID)
	assert.ErrorIs(t, err, product.ErrNotReviewOwner)
}

func TestListForProductOnlyApproved(t *testing.T) {
	_, svc, p := newReviewEnv(t)

	r1, err := svc.Create(context.Background(), 1, &product.CreateReviewRequest{ProductID: p.ID, Rating: 5})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), 2, &product.CreateReviewRequest{ProductID: p.ID, Rating: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), r1.ID))

	reviews, total, err := svc.ListForProduct(context.Background(), p.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, r1.ID, reviews[0].ID)
}
