package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/middleware"
)

// Guard bundles the middleware shared by the route groups.
type Guard struct {
	JWTSecret string
	Cache     *middleware.ResponseCache
	Limiter   *middleware.RateLimiter
}

// auth returns JWT verification, role check and rate limiting, in that
// order, so the limiter can key on the caller.
func (g Guard) auth(roles ...string) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.JWTAuth(g.JWTSecret),
		middleware.RequireRole(roles...),
		g.Limiter.Middleware(),
	}
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the cached storefront reads.  They are
// rate limited per IP.
func RegisterPublic(e *echo.Echo, g Guard, layouts *handler.LayoutHandler, banners *handler.BannerHandler) {
	e.GET("/v1/banners", banners.PublicList, g.Limiter.Middleware(), g.Cache.Middleware(handler.TagBanners))
	e.GET("/v1/halls/:id/seats/layout", layouts.PublicLayout, g.Limiter.Middleware(), g.Cache.Middleware(handler.TagLayouts))
}
