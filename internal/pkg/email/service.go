// internal/pkg/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
)

// EmailService renders and sends transactional email
type EmailService struct {
	config *config.Config
	logger *logrus.Logger
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.Config, logger *logrus.Logger) *EmailService {
	return &EmailService{
		config: cfg,
		logger: logger,
	}
}

var tmplFuncs = template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("%.2f", float64(cents)/100)
	},
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(tmplFuncs).Parse(text))
}

var orderConfirmationTmpl = mustTemplate("order_confirmation", `
<h2>Thanks for your order, {{.CustomerName}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> has been received.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{money .Total}}</td></tr>
{{end}}
</table>
<p>Total: <strong>{{money .TotalAmount}} {{.Currency}}</strong></p>
`)

var orderShippedTmpl = mustTemplate("order_shipped", `
<h2>Your order is on its way!</h2>
<p>Order <strong>{{.OrderNumber}}</strong> has shipped.</p>
`)

var paymentSucceededTmpl = mustTemplate("payment_succeeded", `
<h2>Payment received</h2>
<p>We received your payment of {{money .Amount}} {{.Currency}} for order <strong>{{.OrderNumber}}</strong>.</p>
`)

var paymentFailedTmpl = mustTemplate("payment_failed", `
<h2>Payment failed</h2>
<p>Your payment for order <strong>{{.OrderNumber}}</strong> could not be processed{{if .FailureReason}}: {{.FailureReason}}{{end}}.</p>
<p>Please try again with a different payment method.</p>
`)

// SendOrderConfirmation sends the post-checkout confirmation
func (s *EmailService) SendOrderConfirmation(data *OrderEmailData) error {
	return s.render(orderConfirmationTmpl, data, data.CustomerEmail,
		fmt.Sprintf("Order confirmation %s", data.OrderNumber))
}

// SendOrderShipped sends the shipment notification
func (s *EmailService) SendOrderShipped(data *OrderEmailData) error {
	return s.render(orderShippedTmpl, data, data.CustomerEmail,
		fmt.Sprintf("Order %s shipped", data.OrderNumber))
}

// SendPaymentSucceeded sends the payment receipt
func (s *EmailService) SendPaymentSucceeded(data *PaymentEmailData) error {
	return s.render(paymentSucceededTmpl, data, data.CustomerEmail,
		fmt.Sprintf("Payment received for order %s", data.OrderNumber))
}

// SendPaymentFailed tells the customer the charge was declined
func (s *EmailService) SendPaymentFailed(data *PaymentEmailData) error {
	return s.render(paymentFailedTmpl, data, data.CustomerEmail,
		fmt.Sprintf("Payment failed for order %s", data.OrderNumber))
}

func (s *EmailService) render(tmpl *template.Template, data interface{}, to, subject string) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.send(&Email{
		To:          []string{to},
		Subject:     subject,
		HTMLContent: body.String(),
	})
}

// send dispatches by configured provider. Without SMTP settings the
// message is logged instead, which keeps development environments
// working.
func (s *EmailService) send(email *Email) error {
	if s.config.External.Email.SMTPHost == "" {
		s.logger.WithFields(logrus.Fields{
			"to":      email.To,
			"subject": email.Subject,
		}).Info("Email sending skipped (SMTP not configured)")
		return nil
	}
	return s.sendSMTP(email)
}
