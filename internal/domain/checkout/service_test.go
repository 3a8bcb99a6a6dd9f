// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/coupon"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db    *gorm.DB
	svc   *Service
	carts *cart.Service
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Category{}, &product.Product{}, &product.ProductImage{},
		&cart.CartItem{},
		&coupon.Coupon{}, &coupon.CouponProduct{}, &coupon.CouponCategory{}, &coupon.CouponRedemption{},
		&order.Order{}, &order.OrderItem{}, &order.OrderStatusHistory{},
		&user.User{}, &user.Address{},
	))

	cfg := &config.Config{
		Cart: config.CartConfig{MaxItems: 50, MaxQuantityPerItem: 10},
	}
	carts := cart.NewService(db, cfg)
	coupons := coupon.NewService(db, cfg)
	addresses := user.NewAddressService(db, cfg)

	return &testEnv{
		db:    db,
		svc:   NewService(db, cfg, carts, coupons, addresses, queue.NewNoopDispatcher(logrus.New())),
		carts: carts,
	}
}

func inlineAddress() *AddressInput {
	return &AddressInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		PostalCode:   "N1 9GU",
		Country:      "GB",
	}
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, stock int, price int64) *product.Product {
	t.Helper()
	p := &product.Product{Name: "Product " + sku, SKU: sku, Slug: "product-" + sku, Price: price, Stock: stock, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupEnv(t)

	_, err := env.svc.Checkout(context.Background(), 1, &CheckoutRequest{ShippingAddress: inlineAddress()})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutRequiresAddress(t *testing.T) {
	env := setupEnv(t)

	_, err := env.svc.Checkout(context.Background(), 1, &CheckoutRequest{})
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	p := seedProduct(t, env.db, "CHK-1", 5, 1500)

	_, err := env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	ord, err := env.svc.Checkout(ctx, 1, &CheckoutRequest{ShippingAddress: inlineAddress(), Notes: "leave at door"})
	require.NoError(t, err)

	assert.NotEmpty(t, ord.OrderNumber)
	assert.Equal(t, order.StatusPending, ord.Status)
	assert.Equal(t, order.PaymentStatusPending, ord.PaymentStatus)
	assert.Equal(t, int64(3000), ord.Subtotal)
	assert.Equal(t, int64(3000), ord.TotalAmount)
	require.Len(t, ord.Items, 1)
	assert.Equal(t, "CHK-1", ord.Items[0].ProductSKU)
	assert.Equal(t, "Ada", ord.ShippingFirstName)

	// cart is gone but the reservation stays with the order
	resp, err := env.carts.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	var prod product.Product
	require.NoError(t, env.db.First(&prod, p.ID).Error)
	assert.Equal(t, 3, prod.Stock)

	var history []order.OrderStatusHistory
	require.NoError(t, env.db.Where("order_id = ?", ord.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, order.StatusPending, history[0].ToStatus)
}

func TestCheckoutWithCoupon(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	p := seedProduct(t, env.db, "CHK-2", 10, 10000)

	require.NoError(t, env.db.Create(&coupon.Coupon{
		Code:           "SAVE10",
		Type:           coupon.TypePercentage,
		Value:          10,
		MaxDiscount:    2000,
		MinOrderAmount: 5000,
		IsActive:       true,
		UsageLimit:     1,
	}).Error)

	_, err := env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)

	ord, err := env.svc.Checkout(ctx, 1, &CheckoutRequest{ShippingAddress: inlineAddress(), CouponCode: "save10"})
	require.NoError(t, err)

	// 300.00 subtotal, 10% capped at 20.00
	assert.Equal(t, int64(30000), ord.Subtotal)
	assert.Equal(t, int64(2000), ord.DiscountAmount)
	assert.Equal(t, int64(28000), ord.TotalAmount)
	assert.Equal(t, "SAVE10", ord.CouponCode)

	var c coupon.Coupon
	require.NoError(t, env.db.Where("code = ?", "SAVE10").First(&c).Error)
	assert.Equal(t, 1, c.UsedCount)

	var redemptions int64
	require.NoError(t, env.db.Model(&coupon.CouponRedemption{}).Count(&redemptions).Error)
	assert.Equal(t, int64(1), redemptions)
}

func TestCheckoutExhaustedCouponAbortsEverything(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	p := seedProduct(t, env.db, "CHK-3", 10, 1000)

	require.NoError(t, env.db.Create(&coupon.Coupon{
		Code: "GONE", Type: coupon.TypeFixedAmount, Value: 100,
		IsActive: true, UsageLimit: 1, UsedCount: 1,
	}).Error)

	_, err := env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = env.svc.Checkout(ctx, 1, &CheckoutRequest{ShippingAddress: inlineAddress(), CouponCode: "GONE"})
	assert.ErrorIs(t, err, coupon.ErrCouponExhausted)

	// nothing was written: cart intact, no order
	resp, err := env.carts.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)

	var orders int64
	require.NoError(t, env.db.Model(&order.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCheckoutReportsEveryBadLine(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	p1 := seedProduct(t, env.db, "CHK-4", 10, 1000)
	p2 := seedProduct(t, env.db, "CHK-5", 10, 2000)
	ok := seedProduct(t, env.db, "CHK-6", 10, 500)

	_, err := env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p1.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p2.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: ok.ID, Quantity: 1})
	require.NoError(t, err)

	// one product deactivated, one deleted after the lines were added
	require.NoError(t, env.db.Model(p1).Update("is_active", false).Error)
	require.NoError(t, env.db.Delete(p2).Error)

	_, err = env.svc.Checkout(ctx, 1, &CheckoutRequest{ShippingAddress: inlineAddress()})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Lines, 2)

	reasons := map[uint]string{}
	for _, line := range vErr.Lines {
		reasons[line.ProductID] = line.Reason
	}
	assert.Equal(t, ReasonProductInactive, reasons[p1.ID])
	assert.Equal(t, ReasonProductMissing, reasons[p2.ID])
}

func TestCheckoutWithSavedAddress(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	p := seedProduct(t, env.db, "CHK-7", 5, 1000)

	addr := &user.Address{
		UserID: 1, Type: "shipping", FirstName: "Grace", LastName: "Hopper",
		AddressLine1: "2 Navy Yard", City: "Arlington", PostalCode: "22202",
		Country: "US", IsDefault: true,
	}
	require.NoError(t, env.db.Create(addr).Error)

	_, err := env.carts.AddToCart(ctx, 1, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	ord, err := env.svc.Checkout(ctx, 1, &CheckoutRequest{ShippingAddressID: addr.ID})
	require.NoError(t, err)
	assert.Equal(t, "Grace", ord.ShippingFirstName)
	assert.Equal(t, "US", ord.ShippingCountry)

	// a foreign address id is rejected
	_, err = env.carts.AddToCart(ctx, 2, &cart.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.svc.Checkout(ctx, 2, &CheckoutRequest{ShippingAddressID: addr.ID})
	assert.ErrorIs(t, err, user.ErrAddressNotFound)
}
