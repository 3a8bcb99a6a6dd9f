// internal/pkg/email/types.go
package email

// Email is one outgoing message
type Email struct {
	To          []string
	Subject     string
	HTMLContent string
	TextContent string
}

// OrderEmailData carries the fields the order templates render
type OrderEmailData struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	TotalAmount   int64 // cents
	Currency      string
	Items         []OrderEmailItem
}

// OrderEmailItem is one line of the order summary table
type OrderEmailItem struct {
	Name      string
	Quantity  int
	UnitPrice int64
	Total     int64
}

// PaymentEmailData carries the fields of the payment notifications
type PaymentEmailData struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Amount        int64
	Currency      string
	FailureReason string
}
