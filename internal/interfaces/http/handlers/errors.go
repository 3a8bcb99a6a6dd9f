// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/upload"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// notFoundErrs map to 404
var notFoundErrs = []error{
	user.ErrUserNotFound,
	user.ErrAddressNotFound,
	order.ErrOrderNotFound,
	payment.ErrPaymentNotFound,
	cart.ErrProductNotFound,
	cart.ErrItemNotFound,
	coupon.ErrCouponNotFound,
	product.ErrProductNotFound,
	product.ErrCategoryNotFound,
	product.ErrReviewNotFound,
	wishlist.ErrItemNotFound,
	wishlist.ErrProductNotFound,
	upload.ErrFileNotFound,
}

// conflictErrs map to 409: state-dependent failures a retry with the
// same payload will not fix until something else changes
var conflictErrs = []error{
	cart.ErrInsufficientStock,
	cart.ErrCartLimitExceeded,
	cart.ErrQuantityLimitExceeded,
	coupon.ErrCouponExhausted,
	coupon.ErrCodeTaken,
	user.ErrEmailTaken,
	product.ErrSKUTaken,
	product.ErrStockNegative,
	product.ErrCategoryInUse,
	product.ErrFallbackCategory,
	product.ErrAlreadyReviewed,
	order.ErrInvalidTransition,
	order.ErrNotCancellable,
	payment.ErrAlreadyPaid,
	payment.ErrNotRefundable,
	payment.ErrRefundExceedsPayment,
}

// badRequestErrs map to 400
var badRequestErrs = []error{
	cart.ErrInvalidQuantity,
	checkout.ErrEmptyCart,
	checkout.ErrAddressRequired,
	coupon.ErrCouponInactive,
	coupon.ErrCouponNotStarted,
	coupon.ErrCouponExpired,
	coupon.ErrMinOrderNotMet,
	coupon.ErrCouponNotApplicable,
	upload.ErrExtensionNotAllowed,
}

// respondError translates service errors into HTTP responses
func respondError(c *gin.Context, cfg *config.Config, err error) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cart validation failed",
			"lines": validationErr.Lines,
		})
		return
	}

	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}

	for _, target := range conflictErrs {
		if errors.Is(err, target) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
	}

	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, product.ErrNotReviewOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, payment.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, upload.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	default:
		resp := gin.H{"error": "Internal server error"}
		if cfg != nil && cfg.IsDevelopment() {
			resp["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// bindError responds to a request binding failure
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseIDParam parses a uint path parameter, responding with 400 on
// failure. The bool result reports whether parsing succeeded.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := parseUint(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " parameter",
		})
		return 0, false
	}
	return id, true
}

func parseUint(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	return uint(v), err
}
