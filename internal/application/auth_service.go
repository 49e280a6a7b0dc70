package application

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// googleStateKey is the ephemeral-store key for one in-flight SSO attempt.
func googleStateKey(state string) string {
	return "google_state:" + state
}

// AuthService handles signup, password login, account deletion and the
// Google single-sign-on flow.
type AuthService struct {
	userRepo    ports.UserRepository
	passwords   ports.PasswordHasher
	tokens      ports.TokenIssuer
	sso         ports.SSOProvider
	stateStore  ports.StateStore
	frontendURL string
	logger      zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo ports.UserRepository,
	passwords ports.PasswordHasher,
	tokens ports.TokenIssuer,
	sso ports.SSOProvider,
	stateStore ports.StateStore,
	frontendURL string,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		passwords:   passwords,
		tokens:      tokens,
		sso:         sso,
		stateStore:  stateStore,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Signup registers a new password-authenticated user.
func (s *AuthService) Signup(ctx context.Context, email, plaintext string) (*domain.User, error) {
	if email == "" || plaintext == "" {
		return nil, domain.E(domain.KindInvalidRequest, "email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.E(domain.KindInternal, "failed to check email", err)
	}
	if existing != nil {
		return nil, domain.E(domain.KindConflict, "user already exists")
	}

	digest, err := s.passwords.Hash(plaintext)
	if err != nil {
		return nil, domain.E(domain.KindInternal, "failed to hash password", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: &digest,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.E(domain.KindPersistenceError, "failed to create user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User created")
	return user, nil
}

// Login verifies a password and issues a session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to look up user", err)
	}
	if user == nil || !user.HasCredential() || !s.passwords.Verify(plaintext, *user.PasswordHash) {
		return "", domain.E(domain.KindUnauthenticated, "invalid credentials")
	}

	signed, err := s.tokens.Issue(user.ID, user.Email, 0)
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to issue token", err)
	}
	return signed, nil
}

// DeleteAccount removes the authenticated user after re-proving the
// password. Integrations and synced rows cascade.
func (s *AuthService) DeleteAccount(ctx context.Context, claims domain.SessionClaims, plaintext string) error {
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return domain.E(domain.KindInternal, "failed to look up user", err)
	}
	if user == nil {
		return domain.E(domain.KindNotFound, "user not found")
	}
	if !user.HasCredential() || !s.passwords.Verify(plaintext, *user.PasswordHash) {
		return domain.E(domain.KindForbidden, "incorrect password")
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return domain.E(domain.KindPersistenceError, "failed to delete user", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("User deleted")
	return nil
}

// GoogleAuthURL starts the SSO flow: it stores a single-use CSRF state in
// the ephemeral store and returns the provider redirect.
func (s *AuthService) GoogleAuthURL(ctx context.Context) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to generate state", err)
	}
	if err := s.stateStore.Put(ctx, googleStateKey(state), "pending", domain.HandshakeTTL); err != nil {
		return "", domain.E(domain.KindUpstreamUnavailable, "failed to store authorization data", err)
	}
	return s.sso.AuthURL(state), nil
}

// GoogleCallback validates the provider redirect, finds or creates the
// user, and returns the frontend redirect URL carrying the session token.
func (s *AuthService) GoogleCallback(ctx context.Context, state, code string) (string, error) {
	if state == "" || code == "" {
		return "", domain.E(domain.KindInvalidRequest, "missing state or code")
	}

	_, ok, err := s.stateStore.Get(ctx, googleStateKey(state))
	if err != nil || !ok {
		return "", domain.E(domain.KindUnauthenticated, "could not validate credentials", err)
	}
	// Single use regardless of outcome.
	if err := s.stateStore.Delete(ctx, googleStateKey(state)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete SSO state; entry will expire")
	}

	profile, err := s.sso.Exchange(ctx, code)
	if err != nil {
		return "", err
	}

	user, err := s.userRepo.GetByEmail(ctx, profile.Email)
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to look up user", err)
	}
	if user == nil {
		user = &domain.User{
			Email:              profile.Email,
			OAuthLinked:        true,
			ConnectedPlatforms: map[string]string{"google": profile.Name},
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", domain.E(domain.KindPersistenceError, "failed to create user", err)
		}
		s.logger.Info().Str("user_id", user.ID.String()).Msg("User created via SSO")
	}

	signed, err := s.tokens.Issue(user.ID, user.Email, 0)
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to issue token", err)
	}

	redirect := fmt.Sprintf("%s/auth/google/callback?access_token=%s", s.frontendURL, url.QueryEscape(signed))
	return redirect, nil
}
