// internal/interfaces/http/handlers/coupon.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CouponHandler handles coupon endpoints
type CouponHandler struct {
	couponService *coupon.Service
	cartService   *cart.Service
	config        *config.Config
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(db *gorm.DB, cfg *config.Config) *CouponHandler {
	return &CouponHandler{
		couponService: coupon.NewService(db, cfg),
		cartService:   cart.NewService(db, cfg),
		config:        cfg,
	}
}

// ValidateCouponRequest carries the code to validate
type ValidateCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidateCoupon handles POST /coupons/validate. The code is checked
// against the caller's current cart.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cartResp, err := h.cartService.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	lines := make([]coupon.EligibleLine, 0, len(cartResp.Items))
	for _, item := range cartResp.Items {
		lines = append(lines, coupon.EligibleLine{
			ProductID:  item.ProductID,
			CategoryID: item.Product.CategoryID,
			LineTotal:  item.LineTotal(),
		})
	}

	applied, err := h.couponService.Validate(c.Request.Context(), req.Code, cartResp.Subtotal, lines)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon is valid",
		"data":    applied,
	})
}

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	coupons, err := h.couponService.List(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupons retrieved successfully",
		"data":    coupons,
	})
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cp, err := h.couponService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon created successfully",
		"data":    cp,
	})
}

// UpdateCoupon handles PUT /admin/coupons/:id
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	couponID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req coupon.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cp, err := h.couponService.Update(c.Request.Context(), couponID, &req)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon updated successfully",
		"data":    cp,
	})
}

// DeleteCoupon handles DELETE /admin/coupons/:id
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	couponID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.couponService.Delete(c.Request.Context(), couponID); err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Coupon deleted successfully",
	})
}
