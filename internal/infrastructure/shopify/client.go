// Package shopify adapts the Shopify Admin API to the service's ports.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// exchangeTimeout bounds the code-exchange call against the third party.
// On timeout the flow fails without retry; callers restart from begin().
const exchangeTimeout = 10 * time.Second

// pageLimit is the Admin API's maximum page size.
const pageLimit = 250

type client struct {
	apiKey      string
	apiSecret   string
	redirectURI string
	app         goshopify.App
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewClient creates a new Shopify client adapter.
func NewClient(apiKey, apiSecret, redirectURI string, logger zerolog.Logger) ports.ShopifyClient {
	return NewClientWithHTTPClient(apiKey, apiSecret, redirectURI, &http.Client{Timeout: exchangeTimeout}, logger)
}

// NewClientWithHTTPClient creates a client with an explicit HTTP client,
// used by tests to point the token endpoint at a stub server.
func NewClientWithHTTPClient(apiKey, apiSecret, redirectURI string, httpClient *http.Client, logger zerolog.Logger) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &client{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		redirectURI: redirectURI,
		app:         app,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// GenerateAuthURL builds the authorization redirect for shop, embedding the
// opaque state and the S256 PKCE challenge. Shopify expects scopes
// comma-separated with no spaces.
func (c *client) GenerateAuthURL(shop string, scopes []string, state string, codeChallenge string) (string, error) {
	if shop == "" || len(scopes) == 0 || state == "" || codeChallenge == "" {
		return "", fmt.Errorf("missing required parameters for auth URL")
	}

	params := url.Values{}
	params.Set("client_id", c.apiKey)
	params.Set("scope", strings.Join(scopes, ","))
	params.Set("redirect_uri", c.redirectURI)
	params.Set("state", state)
	params.Set("code_challenge", codeChallenge)
	params.Set("code_challenge_method", "S256")

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, params.Encode()), nil
}

// ExchangeCode redeems the authorization code at the shop's token endpoint.
// The go-shopify library's GetAccessToken carries neither redirect_uri nor
// code_verifier, so the exchange is a direct HTTP call.
func (c *client) ExchangeCode(ctx context.Context, shop, code, verifier string) (string, error) {
	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)

	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("client_id", c.apiKey)
	values.Set("client_secret", c.apiSecret)
	values.Set("code", code)
	values.Set("redirect_uri", c.redirectURI)
	values.Set("code_verifier", verifier)

	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", domain.E(domain.KindExchangeFailed, "failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", domain.E(domain.KindUpstreamTimeout, "timeout while connecting to Shopify", err)
		}
		return "", domain.E(domain.KindExchangeFailed, "failed to reach Shopify token endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("shop", shop).
			Msg("Shopify token endpoint returned non-success status")
		return "", domain.UpstreamE(resp.StatusCode, fmt.Sprintf("Shopify API error: status %d: %s", resp.StatusCode, string(body)))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", domain.E(domain.KindExchangeFailed, "failed to decode token response", err)
	}
	if tokenResponse.AccessToken == "" {
		return "", domain.E(domain.KindExchangeFailed, "token response contained no access token")
	}

	return tokenResponse.AccessToken, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// createClient is a helper to create a goshopify client for one shop.
func (c *client) createClient(shop, accessToken string) (*goshopify.Client, error) {
	gc, err := goshopify.NewClient(c.app, shop, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return gc, nil
}

func listOptions(since time.Time) goshopify.ListOptions {
	opts := goshopify.ListOptions{Limit: pageLimit}
	if !since.IsZero() {
		opts.UpdatedAtMin = since
	}
	return opts
}

func (c *client) GetProducts(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Product, error) {
	gc, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	products, err := gc.Product.List(ctx, listOptions(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		product := domain.Product{
			ID:          strconv.FormatUint(p.Id, 10),
			Platform:    domain.PlatformShopify,
			Title:       p.Title,
			Description: p.BodyHTML,
			Vendor:      p.Vendor,
			ProductType: p.ProductType,
		}
		if p.CreatedAt != nil {
			product.CreatedAt = *p.CreatedAt
		}
		if p.UpdatedAt != nil {
			product.UpdatedAt = *p.UpdatedAt
		}
		for _, v := range p.Variants {
			variant := domain.Variant{
				ID:                strconv.FormatUint(v.Id, 10),
				ProductID:         product.ID,
				Platform:          domain.PlatformShopify,
				Title:             v.Title,
				SKU:               v.Sku,
				InventoryQuantity: v.InventoryQuantity,
			}
			if v.Price != nil {
				variant.Price = v.Price.InexactFloat64()
			}
			product.Variants = append(product.Variants, variant)
		}
		out = append(out, product)
	}
	return out, nil
}

func (c *client) GetCustomers(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Customer, error) {
	gc, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	customers, err := gc.Customer.List(ctx, listOptions(since))
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	out := make([]domain.Customer, 0, len(customers))
	for _, cu := range customers {
		customer := domain.Customer{
			ID:          strconv.FormatUint(cu.Id, 10),
			Platform:    domain.PlatformShopify,
			Email:       cu.Email,
			FirstName:   cu.FirstName,
			LastName:    cu.LastName,
			OrdersCount: cu.OrdersCount,
		}
		if cu.TotalSpent != nil {
			customer.TotalSpent = cu.TotalSpent.InexactFloat64()
		}
		if cu.CreatedAt != nil {
			customer.CreatedAt = *cu.CreatedAt
		}
		if cu.UpdatedAt != nil {
			customer.UpdatedAt = *cu.UpdatedAt
		}
		out = append(out, customer)
	}
	return out, nil
}

func (c *client) GetOrders(ctx context.Context, shop, accessToken string, since time.Time) ([]domain.Order, error) {
	gc, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	orders, err := gc.Order.List(ctx, goshopify.OrderListOptions{
		ListOptions: listOptions(since),
		Status:      goshopify.OrderStatusAny,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		order := domain.Order{
			ID:                strconv.FormatUint(o.Id, 10),
			Platform:          domain.PlatformShopify,
			Email:             o.Email,
			FinancialStatus:   string(o.FinancialStatus),
			FulfillmentStatus: string(o.FulfillmentStatus),
			Currency:          o.Currency,
		}
		if o.Customer != nil {
			order.CustomerID = strconv.FormatUint(o.Customer.Id, 10)
		}
		if o.TotalPrice != nil {
			order.TotalPrice = o.TotalPrice.InexactFloat64()
		}
		if o.CreatedAt != nil {
			order.CreatedAt = *o.CreatedAt
		}
		if o.UpdatedAt != nil {
			order.UpdatedAt = *o.UpdatedAt
		}
		for _, li := range o.LineItems {
			item := domain.OrderItem{
				ID:       strconv.FormatUint(li.Id, 10),
				OrderID:  order.ID,
				Platform: domain.PlatformShopify,
				Quantity: li.Quantity,
				Title:    li.Title,
				SKU:      li.SKU,
			}
			if li.ProductId != 0 {
				item.ProductID = strconv.FormatUint(li.ProductId, 10)
			}
			if li.VariantId != 0 {
				item.VariantID = strconv.FormatUint(li.VariantId, 10)
			}
			if li.Price != nil {
				item.Price = li.Price.InexactFloat64()
			}
			order.Items = append(order.Items, item)
		}
		out = append(out, order)
	}
	return out, nil
}
