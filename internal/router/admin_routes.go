package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterAdminTables registers the table registry CRUD.  Only admins
// manage the registry; changing a table never rewrites its bookings.
func RegisterAdminTables(e *echo.Echo, h *handler.TableHandler, jwtSecret string) {
	g := e.Group("/v1/admin/tables",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Deactivate)
}
