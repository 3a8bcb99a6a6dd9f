// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Service handles back-office analytics queries
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// lowStockThreshold flags products close to running out
const lowStockThreshold = 5

// DashboardStats represents the admin dashboard summary
type DashboardStats struct {
	TotalRevenue     int64   `json:"total_revenue"` // cents
	RevenueToday     int64   `json:"revenue_today"`
	RevenueThisMonth int64   `json:"revenue_this_month"`
	RevenueGrowth    float64 `json:"revenue_growth"` // vs last month, percent

	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisMonth int64 `json:"orders_this_month"`
	PendingOrders   int64 `json:"pending_orders"`

	TotalUsers    int64 `json:"total_users"`
	ActiveUsers   int64 `json:"active_users"`
	NewUsersToday int64 `json:"new_users_today"`

	TotalProducts      int64 `json:"total_products"`
	ActiveProducts     int64 `json:"active_products"`
	OutOfStockProducts int64 `json:"out_of_stock_products"`

	AvgOrderValue int64 `json:"avg_order_value"` // cents

	RecentOrders []order.Order  `json:"recent_orders"`
	LowStock     []LowStockItem `json:"low_stock"`
}

// LowStockItem is a product that needs restocking
type LowStockItem struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Stock       int    `json:"stock"`
}

// SalesPoint is one bucket of the revenue time series
type SalesPoint struct {
	Date       string `json:"date"`
	Revenue    int64  `json:"revenue"`
	OrderCount int64  `json:"order_count"`
}

// GetDashboardStats builds the admin dashboard. Cancelled orders are
// excluded from every revenue figure.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	revenue := "SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status <> 'cancelled'"
	if err := db.Raw(revenue).Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to compute revenue: %w", err)
	}
	db.Raw(revenue+" AND created_at >= ?", today).Scan(&stats.RevenueToday)
	db.Raw(revenue+" AND created_at >= ?", thisMonth).Scan(&stats.RevenueThisMonth)

	var lastMonthRevenue int64
	db.Raw(revenue+" AND created_at >= ? AND created_at < ?", lastMonth, thisMonth).Scan(&lastMonthRevenue)
	if lastMonthRevenue > 0 {
		stats.RevenueGrowth = float64(stats.RevenueThisMonth-lastMonthRevenue) / float64(lastMonthRevenue) * 100
	}

	db.Model(&order.Order{}).Count(&stats.TotalOrders)
	db.Model(&order.Order{}).Where("created_at >= ?", today).Count(&stats.OrdersToday)
	db.Model(&order.Order{}).Where("created_at >= ?", thisMonth).Count(&stats.OrdersThisMonth)
	db.Model(&order.Order{}).Where("status = ?", order.StatusPending).Count(&stats.PendingOrders)

	db.Table("users").Count(&stats.TotalUsers)
	db.Table("users").Where("is_active = ?", true).Count(&stats.ActiveUsers)
	db.Table("users").Where("created_at >= ?", today).Count(&stats.NewUsersToday)

	db.Table("products").Where("deleted_at IS NULL").Count(&stats.TotalProducts)
	db.Table("products").Where("deleted_at IS NULL AND is_active = ?", true).Count(&stats.ActiveProducts)
	db.Table("products").Where("deleted_at IS NULL AND stock <= 0").Count(&stats.OutOfStockProducts)

	var paidOrders int64
	db.Model(&order.Order{}).Where("status <> ?", order.StatusCancelled).Count(&paidOrders)
	if paidOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / paidOrders
	}

	if err := db.Model(&order.Order{}).Order("created_at DESC").Limit(10).Find(&stats.RecentOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	if err := db.Table("products").
		Select("id AS product_id, name AS product_name, sku, stock").
		Where("deleted_at IS NULL AND is_active = ? AND stock <= ?", true, lowStockThreshold).
		Order("stock ASC").
		Limit(20).
		Scan(&stats.LowStock).Error; err != nil {
		return nil, fmt.Errorf("failed to load low stock products: %w", err)
	}

	return stats, nil
}

// GetSalesSeries returns daily revenue for the last N days
func (s *Service) GetSalesSeries(ctx context.Context, days int) ([]SalesPoint, error) {
	if days <= 0 {
		days = 30
	}
	startDate := time.Now().AddDate(0, 0, -days)

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT
			DATE(created_at) AS date,
			COALESCE(SUM(total_amount), 0) AS revenue,
			COUNT(*) AS order_count
		FROM orders
		WHERE created_at >= ? AND status <> 'cancelled'
		GROUP BY DATE(created_at)
		ORDER BY date
	`, startDate).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales series: %w", err)
	}
	defer rows.Close()

	var series []SalesPoint
	for rows.Next() {
		var point SalesPoint
		if err := rows.Scan(&point.Date, &point.Revenue, &point.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan sales point: %w", err)
		}
		series = append(series, point)
	}
	return series, nil
}
