package middleware

// identity.go holds the context helpers shared by the middleware and the
// handlers.  JWTAuth stores a model.Principal under principalKey; code
// further down the chain reads it back with PrincipalFrom.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

const principalKey = "principal"

// SetPrincipal stores p on the request context.
func SetPrincipal(c echo.Context, p model.Principal) { c.Set(principalKey, p) }

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// callerKey identifies the caller for rate limiting: "user:<id>" when
// authenticated, "ip:<addr>" otherwise.
func callerKey(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok && !p.UserID.IsZero() {
		return "user:" + p.UserID.String()
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
