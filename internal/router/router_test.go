package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/booking"
	"github.com/iliyamo/cinema-backoffice/internal/checkin"
	"github.com/iliyamo/cinema-backoffice/internal/config"
	"github.com/iliyamo/cinema-backoffice/internal/handler"
	"github.com/iliyamo/cinema-backoffice/internal/middleware"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
	"github.com/iliyamo/cinema-backoffice/internal/service"
	"github.com/iliyamo/cinema-backoffice/internal/utils"
)

const secret = "router-test-secret"

// newServer wires every route group against a mocked database with
// caching and rate limiting disabled.
func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := zap.NewNop()
	cache := middleware.NewResponseCache(config.CacheConfig{}, nil, log)
	guard := Guard{
		JWTSecret: secret,
		Cache:     cache,
		Limiter:   middleware.NewRateLimiter(config.RateLimitConfig{}, nil, log),
	}
	cinemas := repository.NewCinemaRepo(db)
	orders := repository.NewOrderRepo(db)
	events := service.LogPublisher{Log: log}

	layouts := handler.NewLayoutHandler(cinemas, repository.NewHallRepo(db), repository.NewSeatRepo(db), cache, log)
	banners := handler.NewBannerHandler(repository.NewBannerRepo(db), nil, cache, events, log, 0)
	bookings := handler.NewBookingHandler(booking.NewLoader(orders, cinemas, log), orders, cinemas, checkin.NewEncoder(time.UTC), events, log)

	e := echo.New()
	RegisterRoutes(e)
	RegisterPublic(e, guard, layouts, banners)
	RegisterManager(e, guard, layouts, bookings)
	RegisterAdmin(e, guard, banners)
	return e
}

func bearer(t *testing.T, p model.Principal) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, p, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestRouteGuards(t *testing.T) {
	e := newServer(t)
	managerToken := bearer(t, model.Principal{UserID: "7", Role: model.RoleManager})
	adminToken := bearer(t, model.Principal{UserID: "1", Role: model.RoleAdmin})

	cases := []struct {
		name, method, path, auth string
		status                   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"admin without token", http.MethodGet, "/v1/admin/banners", "", http.StatusUnauthorized},
		{"admin with bad token", http.MethodGet, "/v1/admin/banners", "Bearer nope", http.StatusUnauthorized},
		{"admin as manager", http.MethodPost, "/v1/admin/banners/reorder", managerToken, http.StatusForbidden},
		{"hall create as admin", http.MethodPost, "/v1/halls", adminToken, http.StatusForbidden},
		{"bookings without token", http.MethodGet, "/v1/manager/bookings", "", http.StatusUnauthorized},
		{"preview as manager", http.MethodPost, "/v1/layouts/preview", managerToken, http.StatusOK},
		{"preview as admin", http.MethodPost, "/v1/layouts/preview", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"rows":3,"cols":4,"seed":1}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tc.auth != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
