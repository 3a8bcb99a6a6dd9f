// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *wishlist.Service
	config          *config.Config
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(db *gorm.DB, cfg *config.Config) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlist.NewService(db, cfg, cart.NewService(db, cfg)),
		config:          cfg,
	}
}

// AddWishlistItemRequest carries the product to save
type AddWishlistItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// MoveToCartRequest carries the desired cart quantity
type MoveToCartRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	items, err := h.wishlistService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist retrieved successfully",
		"data":    items,
	})
}

// GetDeletedWishlist handles GET /wishlist/deleted. Soft-deleted
// entries stay restorable until purged.
func (h *WishlistHandler) GetDeletedWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	items, err := h.wishlistService.ListDeleted(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Deleted wishlist items retrieved successfully",
		"data":    items,
	})
}

// AddToWishlist handles POST /wishlist
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.wishlistService.Add(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added to wishlist successfully",
		"data":    item,
	})
}

// RemoveFromWishlist handles DELETE /wishlist/:id
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.wishlistService.Remove(c.Request.Context(), userID, productID); err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed from wishlist successfully",
	})
}

// PurgeWishlistItem handles DELETE /wishlist/:id/purge
func (h *WishlistHandler) PurgeWishlistItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.wishlistService.HardDelete(c.Request.Context(), userID, productID); err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist item permanently removed",
	})
}

// RestoreWishlistItem handles POST /wishlist/:id/restore
func (h *WishlistHandler) RestoreWishlistItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.wishlistService.Restore(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Wishlist item restored successfully",
		"data":    item,
	})
}

// MoveToCart handles POST /wishlist/:id/move-to-cart
func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// Body is optional, quantity defaults to 1
	req := MoveToCartRequest{Quantity: 1}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
	}

	resp, err := h.wishlistService.MoveToCart(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondError(c, h.config, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product moved to cart successfully",
		"data":    resp,
	})
}
