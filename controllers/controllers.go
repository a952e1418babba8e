package controllers

import (
	"errors"
	"net/http"

	"tripmate_server/helpers"
	"tripmate_server/logging"
	"tripmate_server/services"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the TripMate matchmaking API."})
}

// writeServiceError maps core errors to HTTP statuses. Retryable store failures
// get a generic "try again" so clients resubmit.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidStatus):
		helpers.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		helpers.WriteErrorResponse(w, http.StatusNotFound, "not found")
	case services.IsRetryable(err):
		logging.Warn().Err(err).Str("path", r.URL.Path).Msg("⚠️ transient store failure")
		w.Header().Set("Retry-After", "1")
		helpers.WriteErrorResponse(w, http.StatusServiceUnavailable, "temporarily unavailable, please try again")
	default:
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("❌ request failed")
		helpers.WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	first := verrs[0]
	return first.Field() + " failed " + first.Tag() + " validation"
}
