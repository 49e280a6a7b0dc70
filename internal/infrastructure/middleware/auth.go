package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// SessionGuard verifies the bearer token on protected routes and attaches
// the session claims to the request context. Every rejection is a uniform
// 401 so callers cannot distinguish a missing token from an expired or
// tampered one.
func SessionGuard(tokens ports.TokenIssuer, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				logger.Debug().Err(err).Msg("session token rejected")
				unauthorized(w)
				return
			}

			ctx := domain.WithSession(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  string(domain.KindUnauthenticated),
		"detail": "invalid or missing credentials",
	})
}
