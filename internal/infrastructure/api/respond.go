package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"storefront-insights-core/internal/domain"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a service error onto the taxonomy's HTTP status and a
// structured body. Internal details stay in the log, not the response.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := domain.HTTPStatus(err)
	body := errorBody{Error: string(domain.KindOf(err)), Detail: "internal error"}

	var de *domain.Error
	if errors.As(err, &de) {
		body.Detail = de.Detail
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, body)
}
