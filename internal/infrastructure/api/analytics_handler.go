package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"storefront-insights-core/internal/application"
	"storefront-insights-core/internal/domain"
)

// AnalyticsHandler exposes the aggregations over synced commerce data.
type AnalyticsHandler struct {
	analytics *application.AnalyticsService
	logger    zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *application.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// KPIs handles GET /analytics/kpis.
func (h *AnalyticsHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	report, err := h.analytics.KPIs(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RevenueBatch handles GET /analytics/revenue_batch with freq, offset,
// limit and optional start/end (RFC 3339 or YYYY-MM-DD) query params.
func (h *AnalyticsHandler) RevenueBatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	query := r.URL.Query()
	freq := query.Get("freq")
	if freq == "" {
		freq = application.FreqWeekly
	}

	offset, err := intParam(query.Get("offset"), 0)
	if err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "offset must be an integer"))
		return
	}
	limit, err := intParam(query.Get("limit"), 0)
	if err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "limit must be an integer"))
		return
	}

	start, err := timeParam(query.Get("start"))
	if err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "start must be RFC 3339 or YYYY-MM-DD"))
		return
	}
	end, err := timeParam(query.Get("end"))
	if err != nil {
		writeError(w, h.logger, domain.E(domain.KindInvalidRequest, "end must be RFC 3339 or YYYY-MM-DD"))
		return
	}

	points, err := h.analytics.RevenueSeries(r.Context(), claims.UserID, freq, start, end, offset, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"freq": freq, "points": points})
}

// RevenueAll handles GET /analytics/revenue_all.
func (h *AnalyticsHandler) RevenueAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := domain.SessionFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, domain.E(domain.KindUnauthenticated, "invalid or missing credentials"))
		return
	}

	weekly, monthly, err := h.analytics.RevenueAll(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekly": weekly, "monthly": monthly})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func timeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
