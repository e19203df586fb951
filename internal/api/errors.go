package api

import (
	"errors"
	"math"
	"net/http"

	respond "github.com/Unknown-2829/Hitek-db-api-web/internal/api/respond"
	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Insufficient privilege is reported as 404 so admin routes stay hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rl *model.RateLimitError
	switch {
	case errors.As(err, &rl):
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		respond.WriteRateLimited(w, "Too many requests. Slow down.", max(secs, 1))
	case errors.Is(err, model.ErrInvalidIdentifier):
		respond.WriteError(w, http.StatusBadRequest, "invalid_identifier", "Invalid mobile number. Expected 10 digits starting with 6-9.")
	case errors.Is(err, model.ErrInvalidQuery):
		respond.WriteError(w, http.StatusBadRequest, "invalid_query", "Search text requires at least 3 characters.")
	case errors.Is(err, model.ErrValidation):
		respond.WriteError(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, model.ErrBanned):
		respond.WriteError(w, http.StatusForbidden, "banned", "Access denied.")
	case errors.Is(err, model.ErrAccessDenied):
		respond.WriteError(w, http.StatusForbidden, "access_denied", "Access denied. The service is in private mode.")
	case errors.Is(err, model.ErrInsufficientPrivilege), errors.Is(err, model.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "not_found", "Not found.")
	case errors.Is(err, model.ErrConflict):
		respond.WriteError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, model.ErrTimeout):
		respond.WriteError(w, http.StatusGatewayTimeout, "timeout", "Search timed out. Try a more specific query.")
	case errors.Is(err, model.ErrFatal), errors.Is(err, model.ErrBusy):
		logFrom(r).Error().Stack().Err(err).Msg("dataset failure")
		respond.WriteError(w, http.StatusServiceUnavailable, "unavailable", "Database temporarily unavailable. Try again shortly.")
	default:
		logFrom(r).Error().Stack().Err(err).Msg("unhandled service error")
		respond.WriteInternalError(w, "Internal server error")
	}
}
