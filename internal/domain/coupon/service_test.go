// internal/domain/coupon/service_test.go
package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Coupon{}, &CouponProduct{}, &CouponCategory{}, &CouponRedemption{}))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, &config.Config{}), db
}

func TestComputeDiscountPercentageCapped(t *testing.T) {
	// 10% off, capped at 20.00, min order 50.00
	c := &Coupon{Type: TypePercentage, Value: 10, MaxDiscount: 2000, MinOrderAmount: 5000}

	// 300.00 order: 10% is 30.00, cap brings it to 20.00
	assert.Equal(t, int64(2000), ComputeDiscount(c, 30000))

	// 100.00 order: 10% is 10.00, under the cap
	assert.Equal(t, int64(1000), ComputeDiscount(c, 10000))
}

func TestComputeDiscountFixedClamped(t *testing.T) {
	c := &Coupon{Type: TypeFixedAmount, Value: 5000}

	assert.Equal(t, int64(5000), ComputeDiscount(c, 30000))
	// never more than the base amount
	assert.Equal(t, int64(2500), ComputeDiscount(c, 2500))

	// the max-discount cap applies to fixed coupons too
	capped := &Coupon{Type: TypeFixedAmount, Value: 5000, MaxDiscount: 2000}
	assert.Equal(t, int64(2000), ComputeDiscount(capped, 30000))
}

func TestValidateErrorOrder(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "NOPE", 10000, nil)
	assert.ErrorIs(t, err, ErrCouponNotFound)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	require.NoError(t, db.Create(&Coupon{Code: "INACTIVE", Type: TypePercentage, Value: 10, IsActive: false}).Error)
	_, err = svc.Validate(ctx, "inactive", 10000, nil)
	assert.ErrorIs(t, err, ErrCouponInactive)

	require.NoError(t, db.Create(&Coupon{Code: "EARLY", Type: TypePercentage, Value: 10, IsActive: true, StartsAt: &future}).Error)
	_, err = svc.Validate(ctx, "EARLY", 10000, nil)
	assert.ErrorIs(t, err, ErrCouponNotStarted)

	require.NoError(t, db.Create(&Coupon{Code: "LATE", Type: TypePercentage, Value: 10, IsActive: true, ExpiresAt: &past}).Error)
	_, err = svc.Validate(ctx, "LATE", 10000, nil)
	assert.ErrorIs(t, err, ErrCouponExpired)

	require.NoError(t, db.Create(&Coupon{Code: "USEDUP", Type: TypePercentage, Value: 10, IsActive: true, UsageLimit: 5, UsedCount: 5}).Error)
	_, err = svc.Validate(ctx, "USEDUP", 10000, nil)
	assert.ErrorIs(t, err, ErrCouponExhausted)

	require.NoError(t, db.Create(&Coupon{Code: "BIGMIN", Type: TypePercentage, Value: 10, IsActive: true, MinOrderAmount: 50000}).Error)
	_, err = svc.Validate(ctx, "BIGMIN", 10000, nil)
	assert.ErrorIs(t, err, ErrMinOrderNotMet)
}

func TestValidateSave10(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&Coupon{
		Code:           "SAVE10",
		Type:           TypePercentage,
		Value:          10,
		MaxDiscount:    2000,
		MinOrderAmount: 5000,
		IsActive:       true,
	}).Error)

	applied, err := svc.Validate(context.Background(), "save10", 30000, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), applied.Discount)

	_, err = svc.Validate(context.Background(), "SAVE10", 4000, nil)
	assert.ErrorIs(t, err, ErrMinOrderNotMet)
}

func TestValidateRestrictedToProducts(t *testing.T) {
	svc, db := newTestService(t)

	coupon := &Coupon{
		Code:     "BOOKS5",
		Type:     TypeFixedAmount,
		Value:    500,
		IsActive: true,
		ProductIDs: []CouponProduct{
			{ProductID: 7},
		},
	}
	require.NoError(t, db.Create(coupon).Error)

	lines := []EligibleLine{
		{ProductID: 7, CategoryID: 1, LineTotal: 3000},
		{ProductID: 9, CategoryID: 2, LineTotal: 8000},
	}
	applied, err := svc.Validate(context.Background(), "BOOKS5", 11000, lines)
	require.NoError(t, err)
	assert.Equal(t, int64(500), applied.Discount)

	noMatch := []EligibleLine{{ProductID: 9, CategoryID: 2, LineTotal: 8000}}
	_, err = svc.Validate(context.Background(), "BOOKS5", 8000, noMatch)
	assert.ErrorIs(t, err, ErrCouponNotApplicable)
}

func TestRedeemConsumesLastUse(t *testing.T) {
	svc, db := newTestService(t)

	coupon := &Coupon{Code: "ONCE", Type: TypeFixedAmount, Value: 100, IsActive: true, UsageLimit: 1}
	require.NoError(t, db.Create(coupon).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(context.Background(), tx, coupon, 1, 100, 100)
	})
	require.NoError(t, err)

	var reloaded Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)

	// second redemption loses the race on used_count
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Redeem(context.Background(), tx, coupon, 2, 101, 100)
	})
	assert.ErrorIs(t, err, ErrCouponExhausted)

	var redemptions int64
	require.NoError(t, db.Model(&CouponRedemption{}).Count(&redemptions).Error)
	assert.Equal(t, int64(1), redemptions)
}
