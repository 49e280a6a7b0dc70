package application

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/infrastructure/repository"
	"storefront-insights-core/internal/ports"
)

const testShop = "acme.myshopify.com"

type integrationFixture struct {
	svc    *IntegrationService
	db     *gorm.DB
	store  *memStateStore
	client *fakeShopifyClient
	repo   ports.IntegrationRepository
	owner  uuid.UUID
}

func newIntegrationFixture(t *testing.T) *integrationFixture {
	t.Helper()
	db := newTestDB(t)
	store := newMemStateStore()
	client := &fakeShopifyClient{}
	repo := repository.NewGormIntegrationRepository(db)
	owner := seedUser(t, db, "u1@example.com").ID
	svc := NewIntegrationService(repo, store, client, zerolog.Nop())
	return &integrationFixture{svc: svc, db: db, store: store, client: client, repo: repo, owner: owner}
}

// begin runs BeginAuthorization and returns the opaque state token embedded
// in the redirect URL.
func (f *integrationFixture) begin(t *testing.T) string {
	t.Helper()
	authURL, err := f.svc.BeginAuthorization(context.Background(), f.owner, testShop)
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func (f *integrationFixture) complete(state string) (*domain.Integration, error) {
	return f.svc.CompleteAuthorization(context.Background(), CallbackParams{
		Code:  "abc123",
		State: state,
		Shop:  testShop,
	})
}

func TestBeginAuthorizationStoresHandshakeState(t *testing.T) {
	f := newIntegrationFixture(t)

	state := f.begin(t)

	payload, err := domain.DecodeHandshakePayload(state)
	require.NoError(t, err)
	assert.Equal(t, f.owner, payload.OwnerID)
	assert.Equal(t, testShop, payload.Shop)

	saved, ok, err := f.store.Get(context.Background(), domain.StateKey(f.owner, testShop))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload.State, saved)

	_, ok, err = f.store.Get(context.Background(), domain.VerifierKey(f.owner, testShop))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBeginAuthorizationValidation(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.svc.BeginAuthorization(context.Background(), uuid.Nil, testShop)
	assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

	_, err = f.svc.BeginAuthorization(context.Background(), f.owner, "")
	assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
}

func TestBeginAuthorizationStoreUnavailable(t *testing.T) {
	f := newIntegrationFixture(t)
	f.store.putErr = errors.New("connection refused")

	_, err := f.svc.BeginAuthorization(context.Background(), f.owner, testShop)
	assert.Equal(t, domain.KindUpstreamUnavailable, domain.KindOf(err))
}

func TestCompleteAuthorizationHappyPath(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)

	integration, err := f.complete(state)
	require.NoError(t, err)
	assert.Equal(t, f.owner, integration.UserID)
	assert.Equal(t, domain.PlatformShopify, integration.Platform)
	assert.Equal(t, testShop, integration.ShopURL)
	assert.True(t, integration.IsActive)
	assert.Equal(t, "shpat_abc123", integration.AccessToken)

	// The verifier handed to the exchange is the one whose S256 digest was
	// sent in the authorization URL.
	assert.Equal(t, "abc123", f.client.exchangedCode)
	assert.Equal(t, f.client.lastChallenge, codeChallengeS256(f.client.exchangedVerifier))

	// Both ephemeral entries are consumed.
	assert.Equal(t, 0, f.store.len())

	// The row is durable.
	saved, err := f.repo.GetByOwnerAndShop(context.Background(), f.owner, domain.PlatformShopify, testShop)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "shpat_abc123", saved.AccessToken)
}

func TestCompleteAuthorizationUpstreamDenied(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.svc.CompleteAuthorization(context.Background(), CallbackParams{
		ErrorCode:        "access_denied",
		ErrorDescription: "merchant declined",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamDenied, domain.KindOf(err))
	assert.Contains(t, err.Error(), "merchant declined")
}

func TestCompleteAuthorizationMissingParams(t *testing.T) {
	f := newIntegrationFixture(t)

	for _, params := range []CallbackParams{
		{State: "s", Shop: testShop},
		{Code: "c", Shop: testShop},
		{Code: "c", State: "s"},
	} {
		_, err := f.svc.CompleteAuthorization(context.Background(), params)
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	}
}

func TestCompleteAuthorizationUndecodableState(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.svc.CompleteAuthorization(context.Background(), CallbackParams{
		Code:  "abc123",
		State: "not-a-valid-token",
		Shop:  testShop,
	})
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestCompleteAuthorizationCsrfMismatch(t *testing.T) {
	f := newIntegrationFixture(t)
	f.begin(t)

	// Well-formed token for the right owner and shop, wrong CSRF value.
	foreign, err := domain.HandshakePayload{
		State:   "attacker-controlled-value",
		OwnerID: f.owner,
		Shop:    testShop,
	}.Encode()
	require.NoError(t, err)

	_, err = f.complete(foreign)
	assert.Equal(t, domain.KindCsrfMismatch, domain.KindOf(err))

	// Fail-closed: nothing was persisted.
	saved, err := f.repo.GetByOwnerAndShop(context.Background(), f.owner, domain.PlatformShopify, testShop)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestCompleteAuthorizationReplay(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)

	_, err := f.complete(state)
	require.NoError(t, err)

	// The ephemeral entries were consumed; replaying the same callback
	// must fail closed.
	_, err = f.complete(state)
	assert.Equal(t, domain.KindAuthorizationExpired, domain.KindOf(err))
}

func TestCompleteAuthorizationExpiredHandshake(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)
	f.store.expireAll()

	_, err := f.complete(state)
	assert.Equal(t, domain.KindAuthorizationExpired, domain.KindOf(err))
}

func TestCompleteAuthorizationStoreErrorReadsAsExpired(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)
	f.store.getErr = errors.New("connection reset")

	_, err := f.complete(state)
	assert.Equal(t, domain.KindAuthorizationExpired, domain.KindOf(err))
}

func TestCompleteAuthorizationExchangeTimeout(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)
	f.client.exchangeFn = func(context.Context, string, string, string) (string, error) {
		return "", domain.E(domain.KindUpstreamTimeout, "timeout while connecting to Shopify")
	}

	_, err := f.complete(state)
	assert.Equal(t, domain.KindUpstreamTimeout, domain.KindOf(err))
}

func TestCompleteAuthorizationUpstreamErrorStatus(t *testing.T) {
	f := newIntegrationFixture(t)
	state := f.begin(t)
	f.client.exchangeFn = func(context.Context, string, string, string) (string, error) {
		return "", domain.UpstreamE(502, "Shopify API error: status 502")
	}

	_, err := f.complete(state)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamError, domain.KindOf(err))
	assert.Equal(t, 502, domain.HTTPStatus(err))
}

func TestCompleteAuthorizationPersistenceFailure(t *testing.T) {
	f := newIntegrationFixture(t)
	f.svc = NewIntegrationService(
		&failingIntegrationRepo{IntegrationRepository: f.repo, upsertErr: errors.New("disk full")},
		f.store, f.client, zerolog.Nop(),
	)
	state := f.begin(t)

	_, err := f.complete(state)
	assert.Equal(t, domain.KindPersistenceError, domain.KindOf(err))
}

func TestCompleteAuthorizationRetryUpserts(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.complete(f.begin(t))
	require.NoError(t, err)

	// A second handshake for the same (owner, shop) refreshes the row
	// instead of duplicating it.
	f.client.exchangeFn = func(context.Context, string, string, string) (string, error) {
		return "shpat_refreshed", nil
	}
	_, err = f.complete(f.begin(t))
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&domain.Integration{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	saved, err := f.repo.GetByOwnerAndShop(context.Background(), f.owner, domain.PlatformShopify, testShop)
	require.NoError(t, err)
	assert.Equal(t, "shpat_refreshed", saved.AccessToken)
}

func TestGetCredential(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.svc.GetCredential(context.Background(), f.owner, testShop)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.complete(f.begin(t))
	require.NoError(t, err)

	token, err := f.svc.GetCredential(context.Background(), f.owner, testShop)
	require.NoError(t, err)
	assert.Equal(t, "shpat_abc123", token)
}

func TestGetCredentialDisabledIntegration(t *testing.T) {
	f := newIntegrationFixture(t)

	_, err := f.complete(f.begin(t))
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.Integration{}).
		Where("user_id = ?", f.owner).
		Update("is_active", false).Error)

	_, err = f.svc.GetCredential(context.Background(), f.owner, testShop)
	assert.Equal(t, domain.KindIntegrationDisabled, domain.KindOf(err))
}
