package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/escape-room-booking/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorBody{Error: code, Message: msg})
}

// respondError maps a service error onto its HTTP status and code.
func respondError(c echo.Context, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		// storage details stay in the logs
		c.Logger().Error(err)
		msg = http.StatusText(status)
	}
	return fail(c, status, code, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSlotUnavailable):
		return http.StatusConflict, "slot_unavailable"
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusConflict, "quota_exceeded"
	case errors.Is(err, service.ErrDuplicateReservation):
		return http.StatusConflict, "duplicate_reservation"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrSlotInUse):
		return http.StatusConflict, "slot_in_use"
	case errors.Is(err, service.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
