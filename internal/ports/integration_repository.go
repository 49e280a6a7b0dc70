package ports

import (
	"context"

	"github.com/google/uuid"

	"storefront-insights-core/internal/domain"
)

// IntegrationRepository defines the interface for integration persistence.
type IntegrationRepository interface {
	// Upsert inserts the integration, or updates the existing row for the
	// same (user, platform, shop) tuple. The write is transactional: either
	// the full record is visible or none of it.
	Upsert(ctx context.Context, integration *domain.Integration) error

	// GetByOwnerAndShop retrieves the integration for one handshake slot.
	// Returns nil, nil when no record exists.
	GetByOwnerAndShop(ctx context.Context, ownerID uuid.UUID, platform, shopURL string) (*domain.Integration, error)

	// ListActiveByOwner lists a user's active integrations for one platform.
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID, platform string) ([]*domain.Integration, error)

	// ListActive lists every active integration for one platform, across
	// owners. Used by the scheduled sync.
	ListActive(ctx context.Context, platform string) ([]*domain.Integration, error)

	// Delete removes an integration by id.
	Delete(ctx context.Context, id uuid.UUID) error
}
