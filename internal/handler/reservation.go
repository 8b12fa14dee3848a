package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP.
// Create is public; every other method expects the staff middleware to
// have run.
type ReservationHandler struct {
	svc *service.ReservationService
}

// NewReservationHandler panics when svc is nil.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

// Create handles POST /v1/reservations.  It returns 201 with the new
// pending reservation.
func (h *ReservationHandler) Create(c echo.Context) error {
	var in service.CreateReservationInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "validation_error", "invalid request body")
	}
	r, err := h.svc.CreateReservation(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List handles GET /v1/reservations.  The response always carries the
// four partitions, empty ones as [].
func (h *ReservationHandler) List(c echo.Context) error {
	out, err := h.svc.ListReservations(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	d, err := h.svc.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /v1/reservations/:partition/:id/status with a
// body of {"status": "approved"|"declined"}.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
	from, ok := model.ParsePartition(c.Param("partition"))
	if !ok {
		return fail(c, http.StatusBadRequest, "validation_error", "unknown partition")
	}
	var body statusRequest
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "validation_error", "invalid request body")
	}
	to, ok := model.ParsePartition(strings.TrimSpace(body.Status))
	if !ok {
		return fail(c, http.StatusBadRequest, "validation_error", "invalid status: must be approved or declined")
	}
	r, err := h.svc.SetReservationStatus(c.Request().Context(), from, c.Param("id"), to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /v1/reservations/:partition/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
	from, ok := model.ParsePartition(c.Param("partition"))
	if !ok {
		return fail(c, http.StatusBadRequest, "validation_error", "unknown partition")
	}
	if err := h.svc.DeleteReservation(c.Request().Context(), from, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
