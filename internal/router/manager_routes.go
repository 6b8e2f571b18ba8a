package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// RegisterManager registers the venue manager endpoints.  Hall writes are
// MANAGER only; reads of bookings and check-in codes are also open to
// ADMIN, who is not scoped to any venue.
func RegisterManager(e *echo.Echo, g Guard, layouts *handler.LayoutHandler, bookings *handler.BookingHandler) {
	managerOnly := g.auth(model.RoleManager)
	staff := g.auth(model.RoleManager, model.RoleAdmin)

	// ---- Layouts ----
	e.POST("/v1/layouts/preview", layouts.Preview, staff...)

	// ---- Halls ----
	e.POST("/v1/halls", layouts.CreateHall, managerOnly...)
	e.PUT("/v1/halls/:id", layouts.UpdateHall, managerOnly...)
	e.PATCH("/v1/halls/:id", layouts.UpdateHall, managerOnly...)

	// ---- Bookings ----
	m := e.Group("/v1/manager", staff...)
	m.GET("/bookings", bookings.List)
	m.GET("/orders/:id/checkin", bookings.CheckIn)
	m.GET("/orders/:id/checkin/qr", bookings.CheckInQR)
}
