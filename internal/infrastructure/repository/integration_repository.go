package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// GormIntegrationRepository implements IntegrationRepository on the
// relational store.
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new integration repository.
func NewGormIntegrationRepository(db *gorm.DB) ports.IntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// Upsert inserts the record, or refreshes the credential and activation of
// the existing row for the same (user, platform, shop) tuple. Retried
// handshakes therefore never create duplicates.
func (r *GormIntegrationRepository) Upsert(ctx context.Context, integration *domain.Integration) error {
	if integration.ID == uuid.Nil {
		integration.ID = uuid.New()
	}
	now := time.Now()
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "shop_url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "marketplace_id", "is_active", "updated_at",
		}),
	}).Create(integration).Error
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}
	return nil
}

func (r *GormIntegrationRepository) GetByOwnerAndShop(ctx context.Context, ownerID uuid.UUID, platform, shopURL string) (*domain.Integration, error) {
	var integration domain.Integration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND shop_url = ?", ownerID, platform, shopURL).
		First(&integration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return &integration, nil
}

func (r *GormIntegrationRepository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID, platform string) ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND is_active = ?", ownerID, platform, true).
		Find(&integrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return integrations, nil
}

func (r *GormIntegrationRepository) ListActive(ctx context.Context, platform string) ([]*domain.Integration, error) {
	var integrations []*domain.Integration
	err := r.db.WithContext(ctx).
		Where("platform = ? AND is_active = ?", platform, true).
		Find(&integrations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return integrations, nil
}

func (r *GormIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Integration{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete integration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("integration not found")
	}
	return nil
}
