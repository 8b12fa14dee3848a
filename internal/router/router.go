// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/escape-room-booking/internal/handler"
	"github.com/iliyamo/escape-room-booking/internal/middleware"
)

// StaffRoles may manage reservations, slots and notifications.
var StaffRoles = []string{"admin", "subadmin"}

// Deps bundles what RegisterRoutes needs.  The middleware fields may be
// nil, in which case the matching routes are mounted without them.
type Deps struct {
	Reservations  *handler.ReservationHandler
	TimeSlots     *handler.TimeSlotHandler
	Notifications *handler.NotificationHandler
	Health        echo.HandlerFunc

	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes mounts the public, rate limited, cached and staff
// routes.
func RegisterRoutes(e *echo.Echo, d Deps) {
	health := d.Health
	if health == nil {
		health = handler.Health(nil)
	}
	e.GET("/healthz", health)

	v1 := e.Group("/v1")

	v1.POST("/reservations", d.Reservations.Create, optional(d.RateLimit)...)
	v1.GET("/chapters/:id/timeslots", d.TimeSlots.ListForDay, optional(d.Cache)...)

	staff := v1.Group("",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(StaffRoles...),
	)
	staff.GET("/reservations", d.Reservations.List)
	staff.GET("/reservations/:id", d.Reservations.Get)
	staff.PUT("/reservations/:partition/:id/status", d.Reservations.SetStatus)
	staff.DELETE("/reservations/:partition/:id", d.Reservations.Delete)

	staff.DELETE("/timeslots/:id", d.TimeSlots.Delete)

	staff.GET("/notifications", d.Notifications.List)
	staff.PUT("/notifications/:id/read", d.Notifications.MarkRead)
	staff.DELETE("/notifications/:id", d.Notifications.Delete)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
