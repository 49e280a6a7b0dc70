package application

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/infrastructure/repository"
	"storefront-insights-core/internal/ports"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return db
}

// memStateStore is an in-memory StateStore with real TTL semantics and
// injectable failures.
type memStateStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	putErr  error
	getErr  error
}

type memEntry struct {
	value     string
	expiresAt time.Time
}

func newMemStateStore() *memStateStore {
	return &memStateStore{entries: make(map[string]memEntry)}
}

func (s *memStateStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.entries[key] = memEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memStateStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *memStateStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// expireAll simulates the handshake TTL elapsing.
func (s *memStateStore) expireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memEntry)
}

func (s *memStateStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fakeShopifyClient records the handshake parameters it was handed and
// serves canned sync data.
type fakeShopifyClient struct {
	mu            sync.Mutex
	lastState     string
	lastChallenge string

	exchangeFn    func(ctx context.Context, shop, code, verifier string) (string, error)
	exchangedCode string
	exchangedVerifier string

	products  []domain.Product
	customers []domain.Customer
	orders    []domain.Order
	lastSince time.Time
}

func (f *fakeShopifyClient) GenerateAuthURL(shop string, scopes []string, state, codeChallenge string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastState = state
	f.lastChallenge = codeChallenge
	params := url.Values{}
	params.Set("state", state)
	params.Set("code_challenge", codeChallenge)
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, params.Encode()), nil
}

func (f *fakeShopifyClient) ExchangeCode(ctx context.Context, shop, code, verifier string) (string, error) {
	f.mu.Lock()
	f.exchangedCode = code
	f.exchangedVerifier = verifier
	fn := f.exchangeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, shop, code, verifier)
	}
	return "shpat_" + code, nil
}

func (f *fakeShopifyClient) GetProducts(_ context.Context, _, _ string, since time.Time) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSince = since
	return f.products, nil
}

func (f *fakeShopifyClient) GetCustomers(_ context.Context, _, _ string, since time.Time) ([]domain.Customer, error) {
	return f.customers, nil
}

func (f *fakeShopifyClient) GetOrders(_ context.Context, _, _ string, since time.Time) ([]domain.Order, error) {
	return f.orders, nil
}

// failingIntegrationRepo injects an upsert failure in front of a real
// repository.
type failingIntegrationRepo struct {
	ports.IntegrationRepository
	upsertErr error
}

func (r *failingIntegrationRepo) Upsert(ctx context.Context, integration *domain.Integration) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	return r.IntegrationRepository.Upsert(ctx, integration)
}

// fakeSSO is an SSOProvider returning one fixed profile.
type fakeSSO struct {
	lastState string
	profile   ports.SSOUser
	exchangeErr error
}

func (f *fakeSSO) AuthURL(state string) string {
	f.lastState = state
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeSSO) Exchange(_ context.Context, code string) (*ports.SSOUser, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	profile := f.profile
	return &profile, nil
}

func seedUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Email: email, OAuthLinked: true}
	require.NoError(t, db.Create(user).Error)
	return user
}
