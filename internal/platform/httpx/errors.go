package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/voyager-travel/voyager/internal/shared"
)

// RespondError maps domain errors onto the envelope. Unexpected errors are
// logged and reported generically as "failed to <action>".
func RespondError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	var verr *shared.ValidationError
	var terr *shared.InvalidTransitionError
	switch {
	case errors.As(err, &verr):
		Fail(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.As(err, &terr):
		Fail(w, http.StatusBadRequest, terr.Error(), nil)
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidTransition):
		Fail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Fail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, shared.ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error(), nil)
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error(action, slog.Any("error", err))
		Fail(w, http.StatusInternalServerError, "failed to "+action, nil)
	}
}
