package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"storefront-insights-core/internal/application"
	"storefront-insights-core/internal/domain"
)

// IntegrationHandler exposes the platform authorization flow, credential
// retrieval and the manual sync trigger.
type IntegrationHandler struct {
	integrations *application.IntegrationService
	sync         *application.SyncService
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewIntegrationHandler creates a new integration handler.
func NewIntegrationHandler(
	integrations *application.IntegrationService,
	sync *application.SyncService,
	logger zerolog.Logger,
) *IntegrationHandler {
	return &IntegrationHandler{
		integrations: integrations,
		sync:         sync,
		validate:     validator.New(),
		logger:       logger,
	}
}

// checkPlatform rejects any platform path segment other than shopify.
func (h *IntegrationHandler) checkPlatform(w http.ResponseWriter, r *http.Request) bool {
	if platform := chi.URLParam(r, "platform"); platform != domain.PlatformShopify {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "unsupported platform"))
		return false
	}
	return true
}

type shopRequest struct {
	Shop string `json:"shop" validate:"required"`
}

// BeginAuth handles POST /integrations/{platform}/auth.
func (h *IntegrationHandler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	if !h.checkPlatform(w, r) {
		return
	}
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	var req shopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "shop is required"))
		return
	}

	authURL, err := h.integrations.BeginAuthorization(r.Context(), claims.UserID, req.Shop)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
}

// Callback handles GET and POST /integrations/{platform}/callback. The
// redirect from the platform carries no session, so the route is public;
// the opaque state token identifies the owner.
func (h *IntegrationHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.checkPlatform(w, r) {
		return
	}

	query := r.URL.Query()
	params := application.CallbackParams{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Shop:             query.Get("shop"),
		ErrorCode:        query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}
	if r.Method == http.MethodPost && params.Code == "" && params.State == "" {
		if err := r.ParseForm(); err == nil {
			params.Code = r.PostFormValue("code")
			params.State = r.PostFormValue("state")
			params.Shop = r.PostFormValue("shop")
			params.ErrorCode = r.PostFormValue("error")
			params.ErrorDescription = r.PostFormValue("error_description")
		}
	}

	integration, err := h.integrations.CompleteAuthorization(r.Context(), params)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, integration)
}

// Credentials handles POST /integrations/{platform}/credentials. This is
// the only surface that returns the stored token, and only to its owner.
func (h *IntegrationHandler) Credentials(w http.ResponseWriter, r *http.Request) {
	if !h.checkPlatform(w, r) {
		return
	}
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	var req shopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "shop is required"))
		return
	}

	token, err := h.integrations.GetCredential(r.Context(), claims.UserID, req.Shop)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

type syncRequest struct {
	Shop string `json:"shop" validate:"required"`
	Mode string `json:"mode"`
}

// TriggerSync handles POST /integrations/{platform}/sync. The pull runs in
// the background; the request returns 202 as soon as it is queued.
func (h *IntegrationHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if !h.checkPlatform(w, r) {
		return
	}
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "shop is required"))
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = application.SyncModeIncremental
	}
	if mode != application.SyncModeFull && mode != application.SyncModeIncremental {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "mode must be full or incremental"))
		return
	}

	// Validate ownership before queueing so the caller gets 404/403 now
	// rather than a silent background failure.
	if _, err := h.integrations.GetCredential(r.Context(), claims.UserID, req.Shop); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.sync.SyncShop(ctx, claims.UserID, req.Shop, mode); err != nil {
			h.logger.Error().Err(err).Str("shop", req.Shop).Msg("background sync failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "mode": mode})
}
