package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends the `{error, message}` error envelope. The error field
// names the kind, derived from the status code; message carries detail.
func writeError(w http.ResponseWriter, status int, message string) {
	kind := "internal server error"
	switch status {
	case http.StatusBadRequest:
		kind = "validation error"
	case http.StatusNotFound:
		kind = "not found"
	case http.StatusMethodNotAllowed:
		kind = "method not allowed"
	case http.StatusTooManyRequests:
		kind = "rate limit exceeded"
	case http.StatusServiceUnavailable:
		kind = "service unavailable"
	}
	writeJSON(w, status, map[string]string{"error": kind, "message": message})
}

// writeList sends the list envelope `{data, count, cached}`.
func writeList[T any](w http.ResponseWriter, data []T, cached bool) {
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   data,
		"count":  len(data),
		"cached": cached,
	})
}
