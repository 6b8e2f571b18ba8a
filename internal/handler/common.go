// Package handler exposes the back-office HTTP handlers.  Handlers parse
// and validate input, call the repositories and the domain packages, and
// translate sentinel errors into status codes.  Every error body has the
// shape {"error": "..."}.
package handler

import (
	"context"
	"errors"  // errors is used to compare sentinel values
	"strconv" // strconv parses path parameters

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/cinema-backoffice/internal/middleware"
	"github.com/iliyamo/cinema-backoffice/internal/model"
)

var errUnauthorized = errors.New("unauthorized")

// fail writes the standard error body.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// principal returns the authenticated caller or errUnauthorized.
func principal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.UserID.IsZero() {
		return model.Principal{}, errUnauthorized
	}
	return p, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// Cache tags of the public read endpoints.  Writes drop the tag they
// affect so readers never see a stale layout or banner list for a full TTL.
const (
	TagBanners = "banners"
	TagLayouts = "layouts"
)

// Cache is the part of the response cache handlers need after a write.
type Cache interface {
	Invalidate(ctx context.Context, tag string) error
}
