// Package google implements single sign-on against Google's OAuth endpoints.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Provider handles the Google authorization-code flow.
type Provider struct {
	config *oauth2.Config
}

// NewProvider creates a Google SSO provider from client credentials.
func NewProvider(clientID, clientSecret, redirectURI string) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
	}
}

// AuthURL builds the authorization redirect carrying the CSRF state.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange redeems the callback code and fetches the user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*ports.SSOUser, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, domain.E(domain.KindUnauthenticated, "could not validate credentials", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.E(domain.KindUnauthenticated, fmt.Sprintf("userinfo request failed: %s", string(body)))
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, domain.E(domain.KindUnauthenticated, "userinfo response contained no email")
	}

	return &ports.SSOUser{Email: info.Email, Name: info.Name}, nil
}
