// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/niramoy/health-assistant/internal/consultation"
	"github.com/niramoy/health-assistant/internal/gateway"
	"github.com/niramoy/health-assistant/internal/lookup"
	"github.com/niramoy/health-assistant/internal/service"
)

const maxBodyBytes = 12 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON body, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, consultation.ErrValidation), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, consultation.ErrNotFound), errors.Is(err, service.ErrNotFound),
		errors.Is(err, consultation.ErrNoDiagnosis):
		return http.StatusNotFound
	case errors.Is(err, consultation.ErrBusy), errors.Is(err, consultation.ErrStale),
		errors.Is(err, consultation.ErrWrongStep):
		return http.StatusConflict
	case errors.Is(err, lookup.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, consultation.ErrGateway), errors.Is(err, gateway.ErrUnavailable),
		errors.Is(err, gateway.ErrInvalidOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor hides internal error detail behind a stable message.
func messageFor(err error, status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		return err.Error()
	case http.StatusBadGateway:
		return consultation.ErrGateway.Error()
	case http.StatusServiceUnavailable:
		return "this feature is not configured"
	default:
		return "internal error"
	}
}

// writeServiceError writes err with its mapped status.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeError(w, status, messageFor(err, status))
}
