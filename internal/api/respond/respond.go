package respond

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Message           string `json:"message"`
	Code              string `json:"code"`
	RetryAfterSeconds *int   `json:"retry_after_seconds,omitempty"`
}

// ErrorResponse wraps ErrorDetail under "detail".
type ErrorResponse struct {
	Detail ErrorDetail `json:"detail"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Detail: ErrorDetail{Message: message, Code: code}})
}

// WriteRateLimited writes a 429 with Retry-After rounded up to whole seconds.
func WriteRateLimited(w http.ResponseWriter, message string, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{Detail: ErrorDetail{
		Message:           message,
		Code:              "rate_limited",
		RetryAfterSeconds: &retryAfterSeconds,
	}})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal", message)
}
