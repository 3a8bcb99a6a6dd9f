// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// InvoiceHandler handles invoice download endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
	config       *config.Config
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: order.NewService(db, cfg, dispatcher),
		pdfService:   pdf.NewService(cfg),
		config:       cfg,
	}
}

// DownloadInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if middleware.IsAdminFromContext(c) {
		userID = 0
	}

	ord, err := h.orderService.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	buf, err := h.pdfService.GenerateInvoice(ord)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", ord.OrderNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
