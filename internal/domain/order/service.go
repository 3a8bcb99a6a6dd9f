// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound is returned for missing or foreign orders
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned for a disallowed status move
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotCancellable is returned when the order has already shipped
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

// Service handles order business logic
type Service struct {
	db         *gorm.DB
	config     *config.Config
	dispatcher queue.Dispatcher
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		dispatcher: dispatcher,
	}
}

// ListOrdersRequest represents order list filters
type ListOrdersRequest struct {
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	UserID        uint   `form:"user_id"`
}

// OrderListResponse represents a paginated order list
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination metadata
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// UpdateStatusRequest represents an admin status change
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
	Comment string `json:"comment"`
}

// GenerateOrderNumber builds a unique human-readable order number
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:8])
}

// ListForUser retrieves the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) (*OrderListResponse, error) {
	return s.list(ctx, &ListOrdersRequest{Page: page, Limit: limit, UserID: userID})
}

// ListAll retrieves orders with admin filters
func (s *Service) ListAll(ctx context.Context, req *ListOrdersRequest) (*OrderListResponse, error) {
	return s.list(ctx, req)
}

func (s *Service) list(ctx context.Context, req *ListOrdersRequest) (*OrderListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Preload("Items").Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int(total) / req.Limit
	if int(total)%req.Limit > 0 {
		totalPages++
	}

	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Get retrieves an order scoped to its owner. Pass userID 0 for admin
// access.
func (s *Service) Get(ctx context.Context, userID, orderID uint) (*Order, error) {
	query := s.db.WithContext(ctx).Preload("Items").Preload("StatusHistory")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	var ord Order
	if err := query.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &ord, nil
}

// GetByNumber retrieves an order by its order number
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").Where("order_number = ?", orderNumber).First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &ord, nil
}

// UpdateStatus moves an order along the allow-listed transitions and
// records the change. Shipping enqueues the customer notification
// after commit.
func (s *Service) UpdateStatus(ctx context.Context, actorID, orderID uint, req *UpdateStatusRequest) (*Order, error) {
	ord, err := s.Get(ctx, 0, orderID)
	if err != nil {
		return nil, err
	}

	if req.Status == StatusCancelled {
		return s.cancel(ctx, ord, actorID, req.Comment)
	}

	if !ord.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, ord.Status, req.Status)
	}

	fromStatus := ord.Status
	now := time.Now()
	updates := map[string]interface{}{"status": req.Status}
	switch req.Status {
	case StatusProcessing:
		updates["processed_at"] = now
	case StatusShipped:
		updates["shipped_at"] = now
	case StatusDelivered:
		updates["delivered_at"] = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		history := OrderStatusHistory{
			OrderID:    ord.ID,
			FromStatus: fromStatus,
			ToStatus:   req.Status,
			Comment:    req.Comment,
			ActorID:    actorID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status == StatusShipped {
		if err := s.dispatcher.Enqueue(ctx, queue.JobOrderShipped, map[string]interface{}{
			"order_id":     ord.ID,
			"order_number": ord.OrderNumber,
			"user_id":      ord.UserID,
		}); err != nil {
			logrus.WithError(err).WithField("order_id", ord.ID).Warn("Failed to enqueue shipped notification")
		}
	}

	return s.Get(ctx, 0, orderID)
}

// Cancel cancels a user's own order
func (s *Service) Cancel(ctx context.Context, userID, orderID uint, comment string) (*Order, error) {
	ord, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, ord, userID, comment)
}

// cancel releases the reserved stock of every line and marks the
// order cancelled in one transaction
func (s *Service) cancel(ctx context.Context, ord *Order, actorID uint, comment string) (*Order, error) {
	if !ord.IsCancellable() {
		return nil, ErrNotCancellable
	}

	fromStatus := ord.Status
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range ord.Items {
			result := tx.Model(&product.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("failed to restore stock: %w", result.Error)
			}
		}

		updates := map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}
		if err := tx.Model(ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		history := OrderStatusHistory{
			OrderID:    ord.ID,
			FromStatus: fromStatus,
			ToStatus:   StatusCancelled,
			Comment:    comment,
			ActorID:    actorID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, 0, ord.ID)
}

// SetPaymentOutcome records the payment result inside the caller's
// transaction. Successful payment requires the transaction id and
// moves a pending order to processing.
func (s *Service) SetPaymentOutcome(ctx context.Context, tx *gorm.DB, orderID uint, paid bool, transactionID string) error {
	var ord Order
	if err := tx.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to retrieve order: %w", err)
	}

	updates := map[string]interface{}{}
	if paid {
		if transactionID == "" {
			return errors.New("transaction id required for paid orders")
		}
		updates["payment_status"] = PaymentStatusPaid
		updates["transaction_id"] = transactionID
		if ord.Status == StatusPending {
			updates["status"] = StatusProcessing
			updates["processed_at"] = time.Now()
		}
	} else {
		updates["payment_status"] = PaymentStatusFailed
	}

	if err := tx.Model(&ord).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if paid && ord.Status == StatusPending {
		history := OrderStatusHistory{
			OrderID:    ord.ID,
			FromStatus: StatusPending,
			ToStatus:   StatusProcessing,
			Comment:    "payment received",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record status history: %w", err)
		}
	}
	return nil
}

// MarkRefunded flags the order's payment as refunded inside the
// caller's transaction
func (s *Service) MarkRefunded(ctx context.Context, tx *gorm.DB, orderID uint) error {
	result := tx.Model(&Order{}).Where("id = ?", orderID).
		Update("payment_status", PaymentStatusRefunded)
	if result.Error != nil {
		return fmt.Errorf("failed to mark order refunded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
