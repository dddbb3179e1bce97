package api

import (
	"context"
	"errors"
	"net/http"

	"physioplan/server/internal/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service-layer sentinel errors onto HTTP statuses:
// user-correctable validation failures become 400/409, missing resources 404,
// policy rejections 403, and store timeouts 503 (retryable). Anything else is
// an internal error; the message is not leaked to the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingSelection),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrSlotInvalid),
		errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrUserNotClient),
		errors.Is(err, service.ErrInvalidRole):
		abortWithError(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrSlotTaken),
		errors.Is(err, service.ErrExerciseInUse),
		errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrPatientNotFound),
		errors.Is(err, service.ErrExerciseNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrPatientAccessDenied),
		errors.Is(err, service.ErrExerciseAccessDenied),
		errors.Is(err, service.ErrScheduleAccessDenied),
		errors.Is(err, service.ErrProgressAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusServiceUnavailable, "store temporarily unavailable, retry later")

	default:
		abortWithError(c, http.StatusInternalServerError, "internal server error")
	}
}
