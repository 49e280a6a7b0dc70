// Package token issues and verifies the signed session tokens that define
// the trust boundary for every protected endpoint.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront-insights-core/internal/domain"
)

// DefaultTTL keeps sessions short because tokens are stateless and cannot
// be revoked before expiry.
const DefaultTTL = 20 * time.Minute

// Service signs and verifies compact, time-bounded session tokens carrying
// subject identity. Validity is fully determined by signature and expiry;
// there is no revocation list.
type Service struct {
	secret []byte
	method jwt.SigningMethod
}

// NewService builds the token service from process configuration. Both the
// secret and the algorithm must be present, and the algorithm must be an
// HMAC variant; otherwise the process should fail fast at startup.
func NewService(secret, algorithm string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("session signing secret is required")
	}
	if algorithm == "" {
		return nil, fmt.Errorf("session signing algorithm is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not a symmetric HMAC variant", algorithm)
	}
	return &Service{secret: []byte(secret), method: method}, nil
}

// Issue produces a signed token encoding the subject's email (sub), id and
// absolute expiry. A zero ttl means DefaultTTL; a negative ttl is honored
// and yields an already-expired token.
func (s *Service) Issue(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	claims := jwt.MapClaims{
		"sub": email,
		"id":  userID.String(),
		"exp": jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims. It
// never touches storage. Failures are taxonomy errors so the guard can map
// them uniformly.
func (s *Service) Verify(tokenString string) (domain.SessionClaims, error) {
	var out domain.SessionClaims

	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return out, domain.E(domain.KindUnauthenticated, "token expired", err)
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return out, domain.E(domain.KindUnauthenticated, "invalid signature", err)
		default:
			return out, domain.E(domain.KindUnauthenticated, "invalid token", err)
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return out, domain.E(domain.KindUnauthenticated, "invalid token")
	}

	email, _ := claims["sub"].(string)
	rawID, _ := claims["id"].(string)
	if email == "" || rawID == "" {
		return out, domain.E(domain.KindUnauthenticated, "malformed claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return out, domain.E(domain.KindUnauthenticated, "malformed claims", err)
	}

	out.UserID = userID
	out.Email = email
	return out, nil
}
