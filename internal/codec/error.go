package codec

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response and logs it. Server-side failures are
// logged at error level, client mistakes at warn.
func WriteError(w http.ResponseWriter, status int, errorType, message string) {
	if strings.TrimSpace(message) == "" {
		message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", message)
	} else {
		slog.Warn("request rejected", "status", status, "error", message)
	}
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Type: errorType}})
}
