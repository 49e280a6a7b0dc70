package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// GormAnalyticsRepository reads the synced tables for aggregation.
type GormAnalyticsRepository struct {
	db *gorm.DB
}

// NewGormAnalyticsRepository creates a new analytics repository.
func NewGormAnalyticsRepository(db *gorm.DB) ports.AnalyticsRepository {
	return &GormAnalyticsRepository{db: db}
}

// OrderRevenues returns one row per order with its item revenue summed in
// SQL. Time bucketing happens in the service so the query stays portable
// across drivers.
func (r *GormAnalyticsRepository) OrderRevenues(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]domain.OrderRevenue, error) {
	query := r.db.WithContext(ctx).
		Table("orders").
		Select("orders.id AS order_id, orders.customer_id, orders.created_at AS placed_at, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS revenue").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ?", ownerID).
		Group("orders.id, orders.customer_id, orders.created_at")

	if !start.IsZero() {
		query = query.Where("orders.created_at >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("orders.created_at <= ?", end)
	}

	var rows []domain.OrderRevenue
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate order revenue: %w", err)
	}
	return rows, nil
}
