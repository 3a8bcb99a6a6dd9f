// internal/domain/order/entity.go
package order

import (
	"time"
)

// Order statuses
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order represents a placed order. Line items and the shipping address
// are snapshots taken at checkout; later product or address edits do
// not change them.
type Order struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	OrderNumber    string     `json:"order_number" gorm:"uniqueIndex;not null"`
	UserID         uint       `json:"user_id" gorm:"not null;index"`
	Status         string     `json:"status" gorm:"not null;default:'pending';index"`
	PaymentStatus  string     `json:"payment_status" gorm:"not null;default:'pending'"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	Subtotal       int64      `json:"subtotal" gorm:"not null"`
	DiscountAmount int64      `json:"discount_amount" gorm:"default:0"`
	ShippingAmount int64      `json:"shipping_amount" gorm:"default:0"`
	TaxAmount      int64      `json:"tax_amount" gorm:"default:0"`
	TotalAmount    int64      `json:"total_amount" gorm:"not null"`
	Currency       string     `json:"currency" gorm:"default:'usd'"`
	CouponCode     string     `json:"coupon_code,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// shipping address snapshot
	ShippingFirstName    string `json:"shipping_first_name"`
	ShippingLastName     string `json:"shipping_last_name"`
	ShippingAddressLine1 string `json:"shipping_address_line1"`
	ShippingAddressLine2 string `json:"shipping_address_line2,omitempty"`
	ShippingCity         string `json:"shipping_city"`
	ShippingState        string `json:"shipping_state,omitempty"`
	ShippingPostalCode   string `json:"shipping_postal_code"`
	ShippingCountry      string `json:"shipping_country"`
	ShippingPhone        string `json:"shipping_phone,omitempty"`

	Items         []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a priced product snapshot within an order
type OrderItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrderID     uint      `json:"order_id" gorm:"not null;index"`
	ProductID   uint      `json:"product_id" gorm:"not null;index"`
	ProductName string    `json:"product_name" gorm:"not null"`
	ProductSKU  string    `json:"product_sku" gorm:"not null"`
	CategoryID  uint      `json:"category_id"`
	ImageURL    string    `json:"image_url,omitempty"`
	UnitPrice   int64     `json:"unit_price" gorm:"not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Total       int64     `json:"total" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusHistory records every status transition for the order
// timeline
type OrderStatusHistory struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;index"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status" gorm:"not null"`
	Comment    string    `json:"comment,omitempty"`
	ActorID    uint      `json:"actor_id"` // 0 for system transitions
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for OrderStatusHistory
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// statusTransitions is the allow-list of forward moves
var statusTransitions = map[string][]string{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransitionTo reports whether the order may move to the target
// status
func (o *Order) CanTransitionTo(target string) bool {
	for _, allowed := range statusTransitions[o.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsCancellable reports whether the order can still be cancelled
func (o *Order) IsCancellable() bool {
	return o.CanTransitionTo(StatusCancelled)
}

// IsPaid reports whether payment completed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
