package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"storefront-insights-core/internal/application"
	"storefront-insights-core/internal/domain"
)

// AuthHandler exposes signup, login, account deletion and the Google SSO
// flow.
type AuthHandler struct {
	auth     *application.AuthService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *application.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validator.New(),
		logger:   logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "email and password (min 8 chars) are required"))
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Token handles POST /auth/token. Credentials arrive as form fields
// username/password and a bearer token comes back.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid form body"))
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "username and password are required"))
		return
	}

	token, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// DeleteAccount handles DELETE /auth. The caller re-proves their password
// before the account and its integrations are removed.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "password is required"))
		return
	}

	if err := h.auth.DeleteAccount(r.Context(), claims, req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GoogleLogin handles GET /auth/google/login with a redirect to Google's
// consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.auth.GoogleAuthURL(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback and redirects back to
// the frontend with a session token.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	redirectURL, err := h.auth.GoogleCallback(r.Context(), r.URL.Query().Get("state"), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
}
