package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/provider"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Response encoding failed", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeProviderError maps a provider failure to a status code: validation
// errors are the client's fault, everything else is an upstream failure.
func writeProviderError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if isValidationError(err) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Provider call failed", err, operation, nil)

	msg := "data provider error"
	if errors.Is(err, provider.ErrUnavailable) {
		msg = provider.ErrUnavailable.Error()
	}
	writeError(w, r, http.StatusBadGateway, msg)
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidPeriod) ||
		errors.Is(err, core.ErrInvalidTransactionType) ||
		errors.Is(err, core.ErrInvalidAmount)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
