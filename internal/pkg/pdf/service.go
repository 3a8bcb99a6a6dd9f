// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// InvoiceData is the data the invoice template renders
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	StoreName     string
	Order         *order.Order
}

// GenerateInvoice renders a PDF invoice for an order
func (s *Service) GenerateInvoice(ord *order.Order) (*bytes.Buffer, error) {
	data := InvoiceData{
		InvoiceNumber: fmt.Sprintf("INV-%s", ord.OrderNumber),
		InvoiceDate:   time.Now().Format("January 2, 2006"),
		StoreName:     s.config.App.Name,
		Order:         ord,
	}

	var html bytes.Buffer
	if err := invoiceTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render invoice template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html.Bytes()))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("%.2f", float64(cents)/100)
	},
}).Parse(invoiceTemplate))

const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; }
        .items-table { width: 100%; border-collapse: collapse; margin: 30px 0; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; }
        .totals { float: right; width: 300px; }
        .totals td { padding: 6px 8px; border-bottom: 1px solid #eee; }
        .total-row { font-size: 16px; font-weight: bold; border-top: 2px solid #333; }
        .footer { margin-top: 60px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.StoreName}}</h1>
        <div class="invoice-title">INVOICE</div>
        <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
        <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
        <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
        <p><strong>Order Date:</strong> {{.Order.CreatedAt.Format "January 2, 2006"}}</p>
        <p><strong>Payment Status:</strong> {{.Order.PaymentStatus}}</p>
    </div>

    <div>
        <strong>Ship To:</strong><br>
        {{.Order.ShippingFirstName}} {{.Order.ShippingLastName}}<br>
        {{.Order.ShippingAddressLine1}}<br>
        {{if .Order.ShippingAddressLine2}}{{.Order.ShippingAddressLine2}}<br>{{end}}
        {{.Order.ShippingCity}}{{if .Order.ShippingState}}, {{.Order.ShippingState}}{{end}} {{.Order.ShippingPostalCode}}<br>
        {{.Order.ShippingCountry}}
    </div>

    <table class="items-table">
        <thead>
            <tr><th>Item</th><th>SKU</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td>{{.ProductName}}</td>
                <td>{{.ProductSKU}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .UnitPrice}}</td>
                <td class="num">{{money .Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td class="num">{{money .Order.Subtotal}}</td></tr>
            {{if gt .Order.DiscountAmount 0}}<tr><td>Discount{{if .Order.CouponCode}} ({{.Order.CouponCode}}){{end}}:</td><td class="num">-{{money .Order.DiscountAmount}}</td></tr>{{end}}
            {{if gt .Order.ShippingAmount 0}}<tr><td>Shipping:</td><td class="num">{{money .Order.ShippingAmount}}</td></tr>{{end}}
            {{if gt .Order.TaxAmount 0}}<tr><td>Tax:</td><td class="num">{{money .Order.TaxAmount}}</td></tr>{{end}}
            <tr class="total-row"><td>Total:</td><td class="num">{{money .Order.TotalAmount}} {{.Order.Currency}}</td></tr>
        </table>
    </div>

    <div style="clear: both;"></div>
    <div class="footer"><p>Thank you for your business!</p></div>
</body>
</html>
`
