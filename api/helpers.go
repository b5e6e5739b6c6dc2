package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/engagement"
)

// writeJSON marshals payload with the given status. Encoding failures are
// logged; headers are already gone by then.
func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the engagement error taxonomy onto HTTP statuses:
// validation and unmet preconditions are 400, absent records 404, storage
// timeouts 504, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation   *engagement.ValidationError
		notFound     *engagement.NotFoundError
		precondition *engagement.PreconditionError
		timeout      *engagement.TimeoutError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &precondition):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusBadRequest)
	case errors.As(err, &notFound):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusNotFound)
	case errors.As(err, &timeout):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusGatewayTimeout)
	default:
		logger.Error("request failed", slog.Any("err", err))
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusInternalServerError)
	}
}
