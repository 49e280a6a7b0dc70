package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// shopifyScopes is the fixed permission set requested at authorization time.
var shopifyScopes = []string{"read_orders", "read_customers", "read_products"}

// IntegrationService orchestrates the PKCE+state OAuth handshake against a
// third-party platform: it builds the authorization redirect, validates the
// callback, exchanges the authorization code for a long-lived credential
// and persists it.
type IntegrationService struct {
	integrationRepo ports.IntegrationRepository
	stateStore      ports.StateStore
	shopifyClient   ports.ShopifyClient
	logger          zerolog.Logger
}

// NewIntegrationService creates a new integration service.
func NewIntegrationService(
	integrationRepo ports.IntegrationRepository,
	stateStore ports.StateStore,
	shopifyClient ports.ShopifyClient,
	logger zerolog.Logger,
) *IntegrationService {
	return &IntegrationService{
		integrationRepo: integrationRepo,
		stateStore:      stateStore,
		shopifyClient:   shopifyClient,
		logger:          logger,
	}
}

// CallbackParams carries the query parameters of the third party's redirect.
type CallbackParams struct {
	Code             string
	State            string
	Shop             string
	ErrorCode        string
	ErrorDescription string
}

// BeginAuthorization starts a handshake for one (owner, shop) slot and
// returns the authorization redirect URL. The CSRF state and the PKCE
// verifier are stored in the ephemeral store for the handshake window;
// both writes land before the URL is returned, so a caller holding the URL
// can always complete within the TTL. Concurrent calls for the same slot
// race last-writer-wins; the loser fails closed at callback time.
func (s *IntegrationService) BeginAuthorization(ctx context.Context, ownerID uuid.UUID, shop string) (string, error) {
	if ownerID == uuid.Nil || shop == "" {
		return "", domain.E(domain.KindInvalidRequest, "missing owner or shop")
	}

	csrf, err := generateState()
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to generate state", err)
	}
	payload := domain.HandshakePayload{State: csrf, OwnerID: ownerID, Shop: shop}
	encodedState, err := payload.Encode()
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to encode state", err)
	}

	verifier, err := generateCodeVerifier()
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to generate code verifier", err)
	}
	challenge := codeChallengeS256(verifier)

	authURL, err := s.shopifyClient.GenerateAuthURL(shop, shopifyScopes, encodedState, challenge)
	if err != nil {
		return "", domain.E(domain.KindInternal, "failed to build auth URL", err)
	}

	// Both entries are independent; write them concurrently. If the store
	// is unreachable the caller gets no URL it cannot complete.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.stateStore.Put(gctx, domain.StateKey(ownerID, shop), csrf, domain.HandshakeTTL)
	})
	g.Go(func() error {
		return s.stateStore.Put(gctx, domain.VerifierKey(ownerID, shop), verifier, domain.HandshakeTTL)
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to store authorization state")
		return "", domain.E(domain.KindUpstreamUnavailable, "failed to store authorization data", err)
	}

	s.logger.Info().
		Str("owner", ownerID.String()).
		Str("shop", shop).
		Msg("Authorization handshake initiated")

	return authURL, nil
}

// CompleteAuthorization validates the third party's callback, exchanges the
// code for a long-lived credential and persists the integration record. On
// success the ephemeral entries are deleted best-effort; a failed delete is
// logged, never propagated, because the record is already durable and the
// entries expire on their own.
func (s *IntegrationService) CompleteAuthorization(ctx context.Context, params CallbackParams) (*domain.Integration, error) {
	if params.ErrorCode != "" {
		detail := params.ErrorDescription
		if detail == "" {
			detail = params.ErrorCode
		}
		return nil, domain.E(domain.KindUpstreamDenied, detail)
	}

	if params.Code == "" || params.State == "" || params.Shop == "" {
		return nil, domain.E(domain.KindInvalidRequest, "missing required OAuth parameters: code, shop, or state")
	}

	payload, err := domain.DecodeHandshakePayload(params.State)
	if err != nil {
		return nil, domain.E(domain.KindInvalidState, "invalid state parameter", err)
	}

	// Both reads are independent; issue them concurrently. A store error is
	// indistinguishable from expiry for the caller: the handshake is simply
	// no longer completable.
	stateKey := domain.StateKey(payload.OwnerID, params.Shop)
	verifierKey := domain.VerifierKey(payload.OwnerID, params.Shop)

	var savedState, verifier string
	var stateOK, verifierOK bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		savedState, stateOK, err = s.stateStore.Get(gctx, stateKey)
		return err
	})
	g.Go(func() error {
		var err error
		verifier, verifierOK, err = s.stateStore.Get(gctx, verifierKey)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("shop", params.Shop).Msg("State store unavailable during callback")
		return nil, domain.E(domain.KindAuthorizationExpired, "authorization data not found or expired", err)
	}
	if !stateOK || !verifierOK {
		return nil, domain.E(domain.KindAuthorizationExpired, "authorization data not found or expired")
	}

	if subtle.ConstantTimeCompare([]byte(savedState), []byte(payload.State)) != 1 {
		s.logger.Warn().
			Str("owner", payload.OwnerID.String()).
			Str("shop", params.Shop).
			Msg("CSRF state mismatch during callback")
		return nil, domain.E(domain.KindCsrfMismatch, "state mismatch - possible CSRF attack")
	}

	accessToken, err := s.shopifyClient.ExchangeCode(ctx, params.Shop, params.Code, verifier)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, domain.E(domain.KindExchangeFailed, "failed to obtain access token", err)
	}

	integration := &domain.Integration{
		UserID:      payload.OwnerID,
		Platform:    domain.PlatformShopify,
		ShopURL:     params.Shop,
		AccessToken: accessToken,
		IsActive:    true,
	}
	if err := s.integrationRepo.Upsert(ctx, integration); err != nil {
		// The exchanged credential is lost here; the handshake id gives an
		// operator enough to reconcile against the platform's app logs.
		s.logger.Error().
			Err(err).
			Str("handshake_id", handshakeID(payload.State)).
			Str("owner", payload.OwnerID.String()).
			Str("shop", params.Shop).
			Msg("Failed to persist integration after successful exchange")
		return nil, domain.E(domain.KindPersistenceError, "failed to save integration", err)
	}

	cleanup, cleanupCtx := errgroup.WithContext(context.WithoutCancel(ctx))
	cleanup.Go(func() error { return s.stateStore.Delete(cleanupCtx, stateKey) })
	cleanup.Go(func() error { return s.stateStore.Delete(cleanupCtx, verifierKey) })
	if err := cleanup.Wait(); err != nil {
		s.logger.Warn().Err(err).Str("shop", params.Shop).Msg("Failed to clean up handshake state; entries will expire")
	}

	s.logger.Info().
		Str("owner", payload.OwnerID.String()).
		Str("shop", params.Shop).
		Str("integration_id", integration.ID.String()).
		Msg("Integration authorized")

	return integration, nil
}

// GetCredential returns the stored long-lived credential for the owner's
// integration with shop. Callers must already be authenticated.
func (s *IntegrationService) GetCredential(ctx context.Context, ownerID uuid.UUID, shop string) (string, error) {
	if ownerID == uuid.Nil || shop == "" {
		return "", domain.E(domain.KindInvalidRequest, "missing owner or shop")
	}

	integration, err := s.integrationRepo.GetByOwnerAndShop(ctx, ownerID, domain.PlatformShopify, shop)
	if err != nil {
		return "", domain.E(domain.KindInternal, "database error", err)
	}
	if integration == nil {
		return "", domain.E(domain.KindNotFound, "no credentials found for this shop")
	}
	if !integration.IsActive {
		return "", domain.E(domain.KindIntegrationDisabled, fmt.Sprintf("%s integration is not active", integration.Platform))
	}
	return integration.AccessToken, nil
}

// handshakeID is a loggable correlation id for one handshake: a stable
// prefix of the CSRF state, never the full value.
func handshakeID(state string) string {
	if len(state) <= 8 {
		return state
	}
	return state[:8]
}
