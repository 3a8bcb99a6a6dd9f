// internal/domain/payment/service_test.go
package payment

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeGateway scripts the provider's responses
type fakeGateway struct {
	intentErr   error
	refundErr   error
	calls       int
	refundCalls int
}

func (f *fakeGateway) CreateAndConfirmIntent(_ context.Context, _ int64, _, _ string, _ map[string]string) (*IntentResult, error) {
	f.calls++
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	return &IntentResult{TransactionID: "pi_test_123", Status: "succeeded"}, nil
}

func (f *fakeGateway) Refund(_ context.Context, _ string, _ int64) (*RefundResult, error) {
	f.refundCalls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &RefundResult{RefundID: "re_test_123", Status: "succeeded"}, nil
}

func setupEnv(t *testing.T, gw Gateway) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Category{}, &product.Product{},
		&order.Order{}, &order.OrderItem{}, &order.OrderStatusHistory{},
		&Payment{},
	))

	cfg := &config.Config{}
	dispatcher := queue.NewNoopDispatcher(logrus.New())
	orders := order.NewService(db, cfg, dispatcher)
	return NewService(db, cfg, gw, orders, dispatcher), db
}

func seedOrder(t *testing.T, db *gorm.DB, paymentStatus string) *order.Order {
	t.Helper()
	ord := &order.Order{
		OrderNumber:   order.GenerateOrderNumber(),
		UserID:        1,
		Status:        order.StatusPending,
		PaymentStatus: paymentStatus,
		Subtotal:      5000,
		TotalAmount:   5000,
		Currency:      "usd",
	}
	require.NoError(t, db.Create(ord).Error)
	return ord
}

func TestProcessPaymentSuccess(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	pay, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_card"})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, pay.Status)
	assert.Equal(t, "pi_test_123", pay.TransactionID)
	assert.Equal(t, int64(5000), pay.Amount)
	require.NotNil(t, pay.PaidAt)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, "pi_test_123", reloaded.TransactionID)
	assert.Equal(t, order.StatusProcessing, reloaded.Status)
}

func TestProcessPaymentAlreadyPaidSkipsGateway(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPaid)

	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_card"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	assert.Zero(t, gw.calls)
}

func TestProcessPaymentGatewayDecline(t *testing.T) {
	gw := &fakeGateway{intentErr: &GatewayError{Code: "card_declined", Message: "Your card was declined."}}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_bad"})
	assert.ErrorIs(t, err, ErrPaymentFailed)

	// payment row records the decline and the order's payment status
	// follows, with no transaction id and the order still retryable
	pay, err := svc.GetByOrder(context.Background(), ord.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, pay.Status)
	assert.Equal(t, "Your card was declined.", pay.FailureReason)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.PaymentStatusFailed, reloaded.PaymentStatus)
	assert.Equal(t, order.StatusPending, reloaded.Status)
	assert.Empty(t, reloaded.TransactionID)
}

func TestProcessPaymentRetryReusesRow(t *testing.T) {
	gw := &fakeGateway{intentErr: &GatewayError{Code: "card_declined", Message: "declined"}}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_bad"})
	require.ErrorIs(t, err, ErrPaymentFailed)

	gw.intentErr = nil
	pay, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_good"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, pay.Status)
	assert.Empty(t, pay.FailureReason)

	var count int64
	require.NoError(t, db.Model(&Payment{}).Where("order_id = ?", ord.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRefundFull(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_card"})
	require.NoError(t, err)

	pay, err := svc.Refund(context.Background(), ord.ID, &RefundRequest{})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, pay.Status)
	assert.Equal(t, int64(5000), pay.RefundedAmount)
	require.NotNil(t, pay.RefundedAt)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.PaymentStatusRefunded, reloaded.PaymentStatus)
}

func TestRefundPartialThenOverflow(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_card"})
	require.NoError(t, err)

	pay, err := svc.Refund(context.Background(), ord.ID, &RefundRequest{Amount: 2000})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyRefunded, pay.Status)
	assert.Equal(t, int64(2000), pay.RefundedAmount)

	// the order keeps its paid status on a partial refund
	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.PaymentStatusPaid, reloaded.PaymentStatus)

	_, err = svc.Refund(context.Background(), ord.ID, &RefundRequest{Amount: 4000})
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)

	// refunding the remainder completes the refund
	pay, err = svc.Refund(context.Background(), ord.ID, &RefundRequest{Amount: 3000})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, pay.Status)
}

func TestListForUserScopedHistory(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)

	ord := seedOrder(t, db, order.PaymentStatusPending)
	_, err := svc.ProcessPayment(context.Background(), 1, &ProcessPaymentRequest{OrderID: ord.ID, PaymentMethodID: "pm_card"})
	require.NoError(t, err)

	// another customer's payment must not leak into the listing
	other := &order.Order{
		OrderNumber:   order.GenerateOrderNumber(),
		UserID:        2,
		Status:        order.StatusPending,
		PaymentStatus: order.PaymentStatusPending,
		Subtotal:      1000,
		TotalAmount:   1000,
		Currency:      "usd",
	}
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Create(&Payment{OrderID: other.ID, UserID: 2, Amount: 1000, Status: StatusPending}).Error)

	payments, total, err := svc.ListForUser(context.Background(), 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, payments, 1)
	assert.Equal(t, ord.ID, payments[0].OrderID)
	assert.Equal(t, StatusCompleted, payments[0].Status)
}

func TestRefundPendingPaymentRejected(t *testing.T) {
	gw := &fakeGateway{}
	svc, db := setupEnv(t, gw)
	ord := seedOrder(t, db, order.PaymentStatusPending)

	require.NoError(t, db.Create(&Payment{OrderID: ord.ID, UserID: 1, Amount: 5000, Status: StatusPending}).Error)

	_, err := svc.Refund(context.Background(), ord.ID, &RefundRequest{})
	assert.ErrorIs(t, err, ErrNotRefundable)
	assert.Zero(t, gw.refundCalls)
}
