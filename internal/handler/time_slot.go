package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/escape-room-booking/internal/service"
)

// TimeSlotHandler serves the public slot calendar and the staff slot
// delete.
type TimeSlotHandler struct {
	svc *service.TimeSlotService
	now func() time.Time
}

func NewTimeSlotHandler(svc *service.TimeSlotService) *TimeSlotHandler {
	if svc == nil {
		panic("nil service passed to NewTimeSlotHandler")
	}
	return &TimeSlotHandler{svc: svc, now: time.Now}
}

// ListForDay handles GET /v1/chapters/:id/timeslots?date=YYYY-MM-DD.  The
// date is a venue-local calendar day and defaults to today.
func (h *TimeSlotHandler) ListForDay(c echo.Context) error {
	loc := h.svc.Location()
	day := h.now().In(loc)
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return fail(c, http.StatusBadRequest, "validation_error", "date must be YYYY-MM-DD")
		}
		day = d
	}
	slots, err := h.svc.ListForDay(c.Request().Context(), c.Param("id"), day)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, slots)
}

// Delete handles DELETE /v1/timeslots/:id.  A slot held by an active
// reservation answers 409.
func (h *TimeSlotHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
