package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterAvailability registers the free-table search.  The route is
// public (guests browse before registering) and wrapped in the response
// cache so hot searches do not hammer the anti-join query.
func RegisterAvailability(e *echo.Echo, h *handler.AvailabilityHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/tables/free", h.Search, cache)
}

// RegisterBooking registers the booking lifecycle routes.  All of them
// require an authenticated GUEST or ADMIN.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleGuest),
	)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id/extend", h.Extend)
	g.DELETE("/:id", h.Cancel)
}
