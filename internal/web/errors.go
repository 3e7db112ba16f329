package web

// errors.go maps service errors onto HTTP responses. Every error is logged
// with the request id for correlation; clients get the mapped user message,
// never the raw error text.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/csvgrid/csvgrid/internal/core"
	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/logging"
)

// ErrorResponse is the JSON body for every error status.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrParse),
		errors.Is(err, dataset.ErrInvalidColumn),
		errors.Is(err, dataset.ErrUnsupportedOperator),
		errors.Is(err, dataset.ErrInvalidPagination):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, dataset.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the user-facing body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	logger.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:  userMsg.Message,
		Action: userMsg.Action,
		Code:   userMsg.Code,
	})
}

// writeJSON encodes v to the response. Encoding errors are logged; headers
// are already sent at that point.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode", "error", err)
	}
}
