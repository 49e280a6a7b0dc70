package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// GormCommerceRepository persists synced catalog, customer and order data.
type GormCommerceRepository struct {
	db *gorm.DB
}

// NewGormCommerceRepository creates a new commerce repository.
func NewGormCommerceRepository(db *gorm.DB) ports.CommerceRepository {
	return &GormCommerceRepository{db: db}
}

// ReplaceForOwner upserts one pull's worth of rows and bumps the owning
// integration's last_synced_at in a single transaction.
func (r *GormCommerceRepository) ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, batch *domain.SyncBatch, syncedAt time.Time) error {
	upsertAll := clause.OnConflict{UpdateAll: true}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batch.Products {
			product := batch.Products[i]
			product.UserID = ownerID
			variants := product.Variants
			product.Variants = nil
			if err := tx.Clauses(upsertAll).Create(&product).Error; err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", product.ID, err)
			}
			for j := range variants {
				if err := tx.Clauses(upsertAll).Create(&variants[j]).Error; err != nil {
					return fmt.Errorf("failed to upsert variant %s: %w", variants[j].ID, err)
				}
			}
		}

		for i := range batch.Customers {
			customer := batch.Customers[i]
			customer.UserID = ownerID
			if err := tx.Clauses(upsertAll).Create(&customer).Error; err != nil {
				return fmt.Errorf("failed to upsert customer %s: %w", customer.ID, err)
			}
		}

		for i := range batch.Orders {
			order := batch.Orders[i]
			order.UserID = ownerID
			items := order.Items
			order.Items = nil
			if err := tx.Clauses(upsertAll).Create(&order).Error; err != nil {
				return fmt.Errorf("failed to upsert order %s: %w", order.ID, err)
			}
			for j := range items {
				items[j].UserID = ownerID
				if err := tx.Clauses(upsertAll).Create(&items[j]).Error; err != nil {
					return fmt.Errorf("failed to upsert order item %s: %w", items[j].ID, err)
				}
			}
		}

		err := tx.Model(&domain.Integration{}).
			Where("id = ?", batch.IntegrationID).
			Update("last_synced_at", syncedAt).Error
		if err != nil {
			return fmt.Errorf("failed to update last_synced_at: %w", err)
		}
		return nil
	})
}
