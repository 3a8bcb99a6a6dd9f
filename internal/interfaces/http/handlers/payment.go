// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	orderService   *order.Service
	config         *config.Config
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, cfg *config.Config, gateway payment.Gateway, dispatcher queue.Dispatcher) *PaymentHandler {
	orders := order.NewService(db, cfg, dispatcher)

	return &PaymentHandler{
		paymentService: payment.NewService(db, cfg, gateway, orders, dispatcher),
		orderService:   orders,
		config:         cfg,
	}
}

// ProcessPayment handles POST /payments/process
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req payment.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pay, err := h.paymentService.ProcessPayment(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment processed successfully",
		"data":    pay,
	})
}

// ListPayments handles GET /payments/history
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	payments, total, err := h.paymentService.ListForUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment history retrieved successfully",
		"data": gin.H{
			"payments": payments,
			"total":    total,
			"page":     page,
			"limit":    limit,
		},
	})
}

// GetPayment handles GET /payments/order/:id. Users can only read
// payments for their own orders.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if middleware.IsAdminFromContext(c) {
		userID = 0
	}

	// Ownership check via the order
	if _, err := h.orderService.Get(c.Request.Context(), userID, orderID); err != nil {
		respondError(c, h.config, err)
		return
	}

	pay, err := h.paymentService.GetByOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment retrieved successfully",
		"data":    pay,
	})
}

// RefundPayment handles POST /admin/orders/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req payment.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pay, err := h.paymentService.Refund(c.Request.Context(), orderID, &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Refund processed successfully",
		"data":    pay,
	})
}
