// internal/domain/payment/entity.go
package payment

import (
	"time"
)

// Payment statuses
const (
	StatusPending           = "pending"
	StatusCompleted         = "completed"
	StatusFailed            = "failed"
	StatusRefunded          = "refunded"
	StatusPartiallyRefunded = "partially_refunded"
)

// Payment is the single payment record for an order. Retried payments
// reuse the row instead of creating new ones.
type Payment struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	OrderID        uint       `json:"order_id" gorm:"not null;uniqueIndex"`
	UserID         uint       `json:"user_id" gorm:"not null;index"`
	Amount         int64      `json:"amount" gorm:"not null"` // cents
	Currency       string     `json:"currency" gorm:"default:'usd'"`
	Status         string     `json:"status" gorm:"not null;default:'pending'"`
	Provider       string     `json:"provider" gorm:"default:'stripe'"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	RefundedAmount int64      `json:"refunded_amount" gorm:"default:0"`
	RefundID       string     `json:"refund_id,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// IsCompleted reports whether the payment went through
func (p *Payment) IsCompleted() bool {
	return p.Status == StatusCompleted || p.Status == StatusPartiallyRefunded
}
