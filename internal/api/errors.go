package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/user"
)

// Error represents a structured error response.
// The web frontend reads the message from the "error" key.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeInvalidState   = "invalid_state"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps an error from the domain packages to a response.
// Storage and unknown errors are logged with the request ID and reported
// as a generic 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "device not found")
	case errors.Is(err, device.ErrSerialExists):
		writeError(w, http.StatusBadRequest, ErrCodeConflict, "serial number already exists")
	case errors.Is(err, user.ErrEmailExists):
		writeError(w, http.StatusBadRequest, ErrCodeConflict, "email already exists")
	case errors.Is(err, device.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidState, detail(err, device.ErrInvalidTransition, "invalid state transition"))
	case errors.Is(err, device.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, detail(err, device.ErrInvalidDevice, "invalid device"))
	case errors.Is(err, user.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, detail(err, user.ErrInvalidUser, "invalid user"))
	default:
		msg := "unexpected error"
		if errors.Is(err, device.ErrStorage) || errors.Is(err, user.ErrStorage) || errors.Is(err, history.ErrStorage) {
			msg = "storage error"
		}
		s.logger.Error(msg,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		writeInternalError(w, "internal server error")
	}
}

// detail strips the sentinel's own text from a wrapped error, leaving the
// caller-facing part ("missing required field: device_type").
func detail(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == err.Error() {
		return fallback
	}
	return msg
}
