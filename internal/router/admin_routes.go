package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// RegisterAdmin registers banner curation under /v1/admin.  All routes
// require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, g Guard, banners *handler.BannerHandler) {
	a := e.Group("/v1/admin", g.auth(model.RoleAdmin)...)

	// ---- Banners ----
	a.GET("/banners", banners.AdminList)
	a.POST("/banners", banners.Create)
	a.PATCH("/banners/:id", banners.Patch)
	a.POST("/banners/reorder", banners.Reorder)
}
