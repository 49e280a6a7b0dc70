package ports

import (
	"context"
	"time"

	"storefront-insights-core/internal/domain"
)

// ShopifyClient defines the interface for Shopify API operations.
type ShopifyClient interface {
	// Authentication
	GenerateAuthURL(shop string, scopes []string, state string, codeChallenge string) (string, error)
	// ExchangeCode redeems an authorization code (with its PKCE verifier)
	// for a long-lived access token at the shop's token endpoint.
	ExchangeCode(ctx context.Context, shop, code, verifier string) (string, error)

	// Admin API reads used by the sync job. A zero since means a full pull;
	// otherwise only records updated at or after since are returned.
	GetProducts(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Product, error)
	GetCustomers(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Customer, error)
	GetOrders(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Order, error)
}
