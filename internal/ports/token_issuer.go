package ports

import (
	"time"

	"github.com/google/uuid"

	"storefront-insights-core/internal/domain"
)

// TokenIssuer signs and verifies session tokens. Verification is
// claims-only; it never touches storage.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email string, ttl time.Duration) (string, error)
	Verify(token string) (domain.SessionClaims, error)
}
