// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group under /api/v1
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, dispatcher queue.Dispatcher) {
	SetupAuthRoutes(rg, db, cfg)
	SetupUserRoutes(rg, db, cfg)
	SetupProductRoutes(rg, db, cfg)
	SetupCartRoutes(rg, db, cfg)
	SetupCheckoutRoutes(rg, db, cfg, dispatcher)
	SetupOrderRoutes(rg, db, cfg, dispatcher)
	SetupPaymentRoutes(rg, db, cfg, dispatcher)
	SetupWishlistRoutes(rg, db, cfg)
	SetupCouponRoutes(rg, db, cfg)
	SetupAdminRoutes(rg, db, cfg, dispatcher)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}
}

// SetupUserRoutes sets up profile and address routes
func SetupUserRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	profileHandler := handlers.NewProfileHandler(db, cfg)
	addressHandler := handlers.NewAddressHandler(db, cfg)

	users := rg.Group("/users")
	users.Use(middleware.AuthMiddleware(cfg))
	{
		users.GET("/profile", profileHandler.GetProfile)
		users.PUT("/profile", profileHandler.UpdateProfile)

		users.GET("/addresses", addressHandler.ListAddresses)
		users.POST("/addresses", addressHandler.CreateAddress)
		users.GET("/addresses/:id", addressHandler.GetAddress)
		users.PUT("/addresses/:id", addressHandler.UpdateAddress)
		users.PUT("/addresses/:id/default", addressHandler.SetDefaultAddress)
		users.DELETE("/addresses/:id", addressHandler.DeleteAddress)
	}
}

// SetupProductRoutes sets up product, category and review routes
func SetupProductRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)

	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
		products.GET("/:id/reviews", reviewHandler.ListProductReviews)
	}

	categories := rg.Group("/categories")
	categories.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		categories.GET("", categoryHandler.ListCategories)
		categories.GET("/tree", categoryHandler.GetCategoryTree)
		categories.GET("/:id", categoryHandler.GetCategory)
	}

	reviews := rg.Group("/reviews")
	reviews.Use(middleware.AuthMiddleware(cfg))
	{
		reviews.POST("", reviewHandler.CreateReview)
		reviews.PUT("/:id", reviewHandler.UpdateReview)
		reviews.DELETE("/:id", reviewHandler.DeleteReview)
	}
}

// SetupCartRoutes sets up cart routes
func SetupCartRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(db, cfg)

	carts := rg.Group("/cart")
	carts.Use(middleware.AuthMiddleware(cfg))
	{
		carts.GET("", cartHandler.GetCart)
		carts.POST("/items", cartHandler.AddToCart)
		carts.PUT("/items/:id", cartHandler.UpdateCartItem)
		carts.DELETE("/items/:id", cartHandler.RemoveFromCart)
		carts.DELETE("", cartHandler.ClearCart)
	}
}

// SetupCheckoutRoutes sets up the checkout route
func SetupCheckoutRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) {
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg, dispatcher)

	co := rg.Group("/checkout")
	co.Use(middleware.AuthMiddleware(cfg))
	{
		co.POST("", checkoutHandler.Checkout)
	}
}

// SetupOrderRoutes sets up customer order routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) {
	orderHandler := handlers.NewOrderHandler(db, cfg, dispatcher)
	invoiceHandler := handlers.NewInvoiceHandler(db, cfg, dispatcher)

	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/invoice", invoiceHandler.DownloadInvoice)
	}
}

// SetupPaymentRoutes sets up payment routes
func SetupPaymentRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) {
	paymentHandler := handlers.NewPaymentHandler(db, cfg, payment.NewStripeGateway(cfg), dispatcher)

	payments := rg.Group("/payments")
	payments.Use(middleware.AuthMiddleware(cfg))
	{
		payments.POST("/process", paymentHandler.ProcessPayment)
		payments.GET("/history", paymentHandler.ListPayments)
		payments.GET("/order/:id", paymentHandler.GetPayment)
	}
}

// SetupWishlistRoutes sets up wishlist routes
func SetupWishlistRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	wishlistHandler := handlers.NewWishlistHandler(db, cfg)

	wishlist := rg.Group("/wishlist")
	wishlist.Use(middleware.AuthMiddleware(cfg))
	{
		wishlist.GET("", wishlistHandler.GetWishlist)
		wishlist.GET("/deleted", wishlistHandler.GetDeletedWishlist)
		wishlist.POST("", wishlistHandler.AddToWishlist)
		wishlist.DELETE("/:id", wishlistHandler.RemoveFromWishlist)
		wishlist.DELETE("/:id/purge", wishlistHandler.PurgeWishlistItem)
		wishlist.POST("/:id/restore", wishlistHandler.RestoreWishlistItem)
		wishlist.POST("/:id/move-to-cart", wishlistHandler.MoveToCart)
	}
}

// SetupCouponRoutes sets up customer coupon routes
func SetupCouponRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	couponHandler := handlers.NewCouponHandler(db, cfg)

	coupons := rg.Group("/coupons")
	coupons.Use(middleware.AuthMiddleware(cfg))
	{
		coupons.POST("/validate", couponHandler.ValidateCoupon)
	}
}

// SetupAdminRoutes sets up all admin routes
func SetupAdminRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, dispatcher queue.Dispatcher) {
	productHandler := handlers.NewProductHandler(db, cfg)
	categoryHandler := handlers.NewCategoryHandler(db, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg, dispatcher)
	paymentHandler := handlers.NewPaymentHandler(db, cfg, payment.NewStripeGateway(cfg), dispatcher)
	userAdminHandler := handlers.NewUserAdminHandler(db, cfg)
	couponHandler := handlers.NewCouponHandler(db, cfg)
	uploadHandler := handlers.NewUploadHandler(db, cfg)
	analyticsHandler := handlers.NewAnalyticsHandler(db, cfg)
	auditHandler := handlers.NewAuditHandler(db, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.AuditTrail(dispatcher))
	{
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.PUT("/products/:id/stock", productHandler.AdjustStock)

		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)

		admin.PUT("/reviews/:id/approve", reviewHandler.ApproveReview)

		admin.GET("/orders", orderHandler.AdminListOrders)
		admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)
		admin.POST("/orders/:id/refund", paymentHandler.RefundPayment)

		admin.GET("/users", userAdminHandler.ListUsers)
		admin.GET("/users/:id", userAdminHandler.GetUser)
		admin.PUT("/users/:id/activate", userAdminHandler.ActivateUser)
		admin.PUT("/users/:id/deactivate", userAdminHandler.DeactivateUser)

		admin.GET("/coupons", couponHandler.ListCoupons)
		admin.POST("/coupons", couponHandler.CreateCoupon)
		admin.PUT("/coupons/:id", couponHandler.UpdateCoupon)
		admin.DELETE("/coupons/:id", couponHandler.DeleteCoupon)

		admin.POST("/uploads", uploadHandler.UploadFile)
		admin.GET("/uploads", uploadHandler.ListFiles)
		admin.DELETE("/uploads/:id", uploadHandler.DeleteFile)

		admin.GET("/dashboard", analyticsHandler.GetDashboard)
		admin.GET("/dashboard/sales", analyticsHandler.GetSalesSeries)

		admin.GET("/audit-logs", auditHandler.ListAuditLogs)
	}
}
