// internal/jobs/handlers.go
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/audit"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"gorm.io/gorm"
)

// Handlers binds queue jobs to the email and audit services
type Handlers struct {
	db     *gorm.DB
	emails *email.EmailService
	audits *audit.Service
}

// NewHandlers creates the job handler set
func NewHandlers(db *gorm.DB, emails *email.EmailService) *Handlers {
	return &Handlers{
		db:     db,
		emails: emails,
		audits: audit.NewService(db),
	}
}

// RegisterAll wires every handler onto the worker
func (h *Handlers) RegisterAll(w *queue.Worker) {
	w.Register(queue.JobOrderConfirmation, h.OrderConfirmation)
	w.Register(queue.JobOrderShipped, h.OrderShipped)
	w.Register(queue.JobPaymentSucceeded, h.PaymentSucceeded)
	w.Register(queue.JobPaymentFailed, h.PaymentFailed)
	w.Register(queue.JobAuditRecord, h.AuditRecord)
}

// orderJobPayload is the envelope shared by the order-related jobs
type orderJobPayload struct {
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	Reason  string `json:"reason"`
}

// OrderConfirmation sends the post-checkout confirmation email
func (h *Handlers) OrderConfirmation(ctx context.Context, job *queue.Job) error {
	ord, usr, err := h.load(ctx, job.Payload)
	if err != nil {
		return err
	}
	return h.emails.SendOrderConfirmation(h.orderData(ord, usr))
}

// OrderShipped sends the shipment notification
func (h *Handlers) OrderShipped(ctx context.Context, job *queue.Job) error {
	ord, usr, err := h.load(ctx, job.Payload)
	if err != nil {
		return err
	}
	return h.emails.SendOrderShipped(h.orderData(ord, usr))
}

// PaymentSucceeded sends the payment receipt
func (h *Handlers) PaymentSucceeded(ctx context.Context, job *queue.Job) error {
	ord, usr, err := h.load(ctx, job.Payload)
	if err != nil {
		return err
	}
	return h.emails.SendPaymentSucceeded(&email.PaymentEmailData{
		OrderNumber:   ord.OrderNumber,
		CustomerName:  usr.GetDisplayName(),
		CustomerEmail: usr.Email,
		Amount:        ord.TotalAmount,
		Currency:      ord.Currency,
	})
}

// PaymentFailed tells the customer the charge was declined
func (h *Handlers) PaymentFailed(ctx context.Context, job *queue.Job) error {
	var payload orderJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode job payload: %w", err)
	}
	ord, usr, err := h.load(ctx, job.Payload)
	if err != nil {
		return err
	}
	return h.emails.SendPaymentFailed(&email.PaymentEmailData{
		OrderNumber:   ord.OrderNumber,
		CustomerName:  usr.GetDisplayName(),
		CustomerEmail: usr.Email,
		Amount:        ord.TotalAmount,
		Currency:      ord.Currency,
		FailureReason: payload.Reason,
	})
}

// auditJobPayload mirrors what the admin trail middleware enqueues
type auditJobPayload struct {
	ActorID    uint   `json:"actor_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
}

// AuditRecord persists an admin trail entry enqueued by the HTTP layer
func (h *Handlers) AuditRecord(ctx context.Context, job *queue.Job) error {
	var payload auditJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode job payload: %w", err)
	}
	return h.audits.Record(ctx, nil, payload.ActorID, payload.Action, payload.EntityType, payload.EntityID, nil, nil)
}

// load resolves the order and its customer from the payload
func (h *Handlers) load(ctx context.Context, raw json.RawMessage) (*order.Order, *user.User, error) {
	var payload orderJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode job payload: %w", err)
	}

	var ord order.Order
	if err := h.db.WithContext(ctx).Preload("Items").First(&ord, payload.OrderID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load order %d: %w", payload.OrderID, err)
	}

	var usr user.User
	if err := h.db.WithContext(ctx).First(&usr, ord.UserID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load user %d: %w", ord.UserID, err)
	}
	return &ord, &usr, nil
}

func (h *Handlers) orderData(ord *order.Order, usr *user.User) *email.OrderEmailData {
	data := &email.OrderEmailData{
		OrderNumber:   ord.OrderNumber,
		CustomerName:  usr.GetDisplayName(),
		CustomerEmail: usr.Email,
		TotalAmount:   ord.TotalAmount,
		Currency:      ord.Currency,
	}
	for _, item := range ord.Items {
		data.Items = append(data.Items, email.OrderEmailItem{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}
	return data
}
