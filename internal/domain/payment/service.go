// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"gorm.io/gorm"
)

var (
	// ErrPaymentNotFound is returned for a missing payment record
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrAlreadyPaid is returned before any gateway call on a paid order
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrPaymentFailed wraps a gateway decline
	ErrPaymentFailed = errors.New("payment failed")
	// ErrNotRefundable is returned when refunding an incomplete payment
	ErrNotRefundable = errors.New("payment is not refundable")
	// ErrRefundExceedsPayment is returned when the refund total would exceed the amount paid
	ErrRefundExceedsPayment = errors.New("refund exceeds amount paid")
)

// Service handles payment business logic
type Service struct {
	db         *gorm.DB
	config     *config.Config
	gateway    Gateway
	orders     *order.Service
	dispatcher queue.Dispatcher
}

// NewService creates a new payment service
func NewService(db *gorm.DB, cfg *config.Config, gateway Gateway, orders *order.Service, dispatcher queue.Dispatcher) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		gateway:    gateway,
		orders:     orders,
		dispatcher: dispatcher,
	}
}

// ProcessPaymentRequest represents payment input
type ProcessPaymentRequest struct {
	OrderID         uint   `json:"order_id" binding:"required"`
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

// RefundRequest represents a refund for an order
type RefundRequest struct {
	Amount int64  `json:"amount" binding:"min=0"` // cents, 0 = full remaining
	Reason string `json:"reason"`
}

// ProcessPayment charges the order total. The already-paid check runs
// before any gateway traffic. On success the Payment and the Order
// converge in one transaction; the gateway call itself stays outside
// it.
func (s *Service) ProcessPayment(ctx context.Context, userID uint, req *ProcessPaymentRequest) (*Payment, error) {
	ord, err := s.orders.Get(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if ord.IsPaid() {
		return nil, ErrAlreadyPaid
	}

	pay, err := s.loadOrCreate(ctx, ord)
	if err != nil {
		return nil, err
	}

	result, gwErr := s.gateway.CreateAndConfirmIntent(ctx, ord.TotalAmount, ord.Currency, req.PaymentMethodID, map[string]string{
		"order_id":     fmt.Sprintf("%d", ord.ID),
		"order_number": ord.OrderNumber,
	})
	if gwErr != nil {
		s.recordFailure(ctx, pay, ord, gwErr)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, gwErr)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         StatusCompleted,
			"transaction_id": result.TransactionID,
			"failure_reason": "",
			"paid_at":        now,
		}
		if err := tx.Model(pay).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return s.orders.SetPaymentOutcome(ctx, tx, ord.ID, true, result.TransactionID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Enqueue(ctx, queue.JobPaymentSucceeded, map[string]interface{}{
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
		"user_id":      ord.UserID,
		"amount":       ord.TotalAmount,
	}); err != nil {
		logrus.WithError(err).WithField("order_id", ord.ID).Warn("Failed to enqueue payment success notification")
	}

	return s.GetByOrder(ctx, ord.ID)
}

// Refund refunds part or all of a completed payment. A full refund
// also flips order.payment_status to refunded in the same
// transaction.
func (s *Service) Refund(ctx context.Context, orderID uint, req *RefundRequest) (*Payment, error) {
	pay, err := s.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !pay.IsCompleted() {
		return nil, ErrNotRefundable
	}

	amount := req.Amount
	remaining := pay.Amount - pay.RefundedAmount
	if amount == 0 {
		amount = remaining
	}
	if amount > remaining {
		return nil, ErrRefundExceedsPayment
	}

	result, err := s.gateway.Refund(ctx, pay.TransactionID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	refundedTotal := pay.RefundedAmount + amount
	status := StatusPartiallyRefunded
	fullRefund := refundedTotal >= pay.Amount
	if fullRefund {
		status = StatusRefunded
	}
	now := time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":          status,
			"refunded_amount": refundedTotal,
			"refund_id":       result.RefundID,
			"refunded_at":     now,
		}
		if err := tx.Model(pay).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if fullRefund {
			return s.orders.MarkRefunded(ctx, tx, orderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByOrder(ctx, orderID)
}

// ListForUser retrieves the user's payment history, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) ([]Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []Payment
	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve payments: %w", err)
	}

	return payments, total, nil
}

// GetByOrder retrieves the payment record for an order
func (s *Service) GetByOrder(ctx context.Context, orderID uint) (*Payment, error) {
	var pay Payment
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&pay).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to retrieve payment: %w", err)
	}
	return &pay, nil
}

// loadOrCreate returns the order's payment row, creating the pending
// one on first attempt
func (s *Service) loadOrCreate(ctx context.Context, ord *order.Order) (*Payment, error) {
	pay, err := s.GetByOrder(ctx, ord.ID)
	if err == nil {
		return pay, nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return nil, err
	}

	pay = &Payment{
		OrderID:  ord.ID,
		UserID:   ord.UserID,
		Amount:   ord.TotalAmount,
		Currency: ord.Currency,
		Status:   StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(pay).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return pay, nil
}

// recordFailure marks the payment and the order's payment_status
// failed and notifies the customer. The order status itself is
// untouched so the payment can be retried. The writes are best-effort.
func (s *Service) recordFailure(ctx context.Context, pay *Payment, ord *order.Order, gwErr error) {
	reason := gwErr.Error()
	var gerr *GatewayError
	if errors.As(gwErr, &gerr) {
		reason = gerr.Message
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(pay).Updates(map[string]interface{}{
			"status":         StatusFailed,
			"failure_reason": reason,
		}).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return s.orders.SetPaymentOutcome(ctx, tx, ord.ID, false, "")
	}); err != nil {
		logrus.WithError(err).WithField("order_id", ord.ID).Error("Failed to record payment failure")
	}

	if err := s.dispatcher.Enqueue(ctx, queue.JobPaymentFailed, map[string]interface{}{
		"order_id":     ord.ID,
		"order_number": ord.OrderNumber,
		"user_id":      ord.UserID,
		"reason":       reason,
	}); err != nil {
		logrus.WithError(err).WithField("order_id", ord.ID).Warn("Failed to enqueue payment failure notification")
	}
}
