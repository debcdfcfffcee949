// Package httputil centralizes domain error translation to HTTP responses.
// Keeping it in one place ensures consistent JSON error envelopes across
// handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "bhulekh/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:        http.StatusUnprocessableEntity,
	dErrors.CodeInvalidTransition: http.StatusConflict,
	dErrors.CodeTerminalState:     http.StatusConflict,
	dErrors.CodeConflict:          http.StatusConflict,
	dErrors.CodeNotFound:          http.StatusNotFound,
	dErrors.CodeUnauthorized:      http.StatusForbidden,
	dErrors.CodeUnavailable:       http.StatusServiceUnavailable,
	dErrors.CodeBadRequest:        http.StatusBadRequest,
	dErrors.CodeInternal:          http.StatusInternalServerError,
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError renders err as a JSON error envelope. Internal errors omit the
// description so infrastructure details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	var de *dErrors.Error
	if code != dErrors.CodeInternal && errors.As(err, &de) && de.Message != "" {
		body["error_description"] = de.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
