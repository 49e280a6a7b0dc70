package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storefront-insights-core/internal/domain"
)

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error

	// GetByEmail returns nil, nil when no user exists for the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID returns nil, nil when no user exists for the id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user; linked integrations and synced rows cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommerceRepository persists synced catalog, customer and order data.
// ReplaceForOwner upserts every row and bumps the integration's
// last_synced_at inside a single transaction: either the whole batch is
// visible, or none of it.
type CommerceRepository interface {
	ReplaceForOwner(ctx context.Context, ownerID uuid.UUID, batch *domain.SyncBatch, syncedAt time.Time) error
}

// AnalyticsRepository reads the synced tables for aggregation. Zero start
// and end mean an unbounded window.
type AnalyticsRepository interface {
	OrderRevenues(ctx context.Context, ownerID uuid.UUID, start, end time.Time) ([]domain.OrderRevenue, error)
}
