// internal/domain/order/service_test.go
package order

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
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
		&product.Category{}, &product.Product{},
		&Order{}, &OrderItem{}, &OrderStatusHistory{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, &config.Config{}, queue.NewNoopDispatcher(logrus.New())), db
}

func seedOrder(t *testing.T, db *gorm.DB, status string) *Order {
	t.Helper()
	p := &product.Product{Name: "Widget", SKU: "W-1", Slug: "widget", Price: 1000, Stock: 0, IsActive: true}
	require.NoError(t, db.Create(p).Error)

	ord := &Order{
		OrderNumber: GenerateOrderNumber(),
		UserID:      1,
		Status:      status,
		Subtotal:    2000,
		TotalAmount: 2000,
		Items: []OrderItem{
			{ProductID: p.ID, ProductName: p.Name, ProductSKU: p.SKU, UnitPrice: 1000, Quantity: 2, Total: 2000},
		},
	}
	require.NoError(t, db.Create(ord).Error)
	return ord
}

func TestStatusTransitionAllowList(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusProcessing, false},
	}
	for _, tc := range cases {
		o := &Order{Status: tc.from}
		assert.Equal(t, tc.allowed, o.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateStatusRecordsHistory(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	updated, err := svc.UpdateStatus(context.Background(), 9, ord.ID, &UpdateStatusRequest{Status: StatusProcessing, Comment: "packing"})
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	require.Len(t, updated.StatusHistory, 1)
	assert.Equal(t, StatusPending, updated.StatusHistory[0].FromStatus)
	assert.Equal(t, StatusProcessing, updated.StatusHistory[0].ToStatus)
	assert.Equal(t, uint(9), updated.StatusHistory[0].ActorID)
}

func TestUpdateStatusRejectsSkippedStep(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	_, err := svc.UpdateStatus(context.Background(), 9, ord.ID, &UpdateStatusRequest{Status: StatusDelivered})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	reloaded, err := svc.Get(context.Background(), 0, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reloaded.Status)
}

func TestShippedSetsTimestamp(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusProcessing)

	updated, err := svc.UpdateStatus(context.Background(), 9, ord.ID, &UpdateStatusRequest{Status: StatusShipped})
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
}

func TestCancelRestoresStock(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	cancelled, err := svc.Cancel(context.Background(), 1, ord.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	var p product.Product
	require.NoError(t, db.First(&p, ord.Items[0].ProductID).Error)
	assert.Equal(t, 2, p.Stock)
}

func TestCancelShippedOrderFails(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusShipped)

	_, err := svc.Cancel(context.Background(), 1, ord.ID, "")
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestGetScopedToOwner(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	_, err := svc.Get(context.Background(), 2, ord.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	found, err := svc.Get(context.Background(), 1, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, ord.OrderNumber, found.OrderNumber)
}

func TestSetPaymentOutcome(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SetPaymentOutcome(context.Background(), tx, ord.ID, true, "pi_123")
	})
	require.NoError(t, err)

	reloaded, err := svc.Get(context.Background(), 0, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, "pi_123", reloaded.TransactionID)
	assert.Equal(t, StatusProcessing, reloaded.Status)
}

func TestSetPaymentOutcomeRequiresTransactionID(t *testing.T) {
	svc, db := newTestService(t)
	ord := seedOrder(t, db, StatusPending)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SetPaymentOutcome(context.Background(), tx, ord.ID, true, "")
	})
	assert.Error(t, err)

	reloaded, err := svc.Get(context.Background(), 0, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPending, reloaded.PaymentStatus)
}
