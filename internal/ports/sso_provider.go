package ports

import "context"

// SSOUser is the profile returned by a single-sign-on provider.
type SSOUser struct {
	Email string
	Name  string
}

// SSOProvider defines the interface for third-party login (Google).
type SSOProvider interface {
	// AuthURL builds the provider's authorization redirect for state.
	AuthURL(state string) string

	// Exchange redeems the callback code and fetches the user profile.
	Exchange(ctx context.Context, code string) (*SSOUser, error)
}
