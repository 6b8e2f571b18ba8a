package middleware

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/config"
)

var cacheCfg = config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1024}

func bannersKey() string {
	return fmt.Sprintf("cache:banners:%x", sha1.Sum([]byte("/v1/banners?")))
}

func cachedEcho(rc *ResponseCache, calls *int) *echo.Echo {
	e := echo.New()
	e.GET("/v1/banners", func(c echo.Context) error {
		*calls++
		return c.String(http.StatusOK, "hello")
	}, rc.Middleware("banners"))
	return e
}

func TestResponseCacheMissStores(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(cacheCfg, db, zap.NewNop())

	payload, err := json.Marshal(cachedResponse{Status: 200, ContentType: echo.MIMETextPlainCharsetUTF8, Body: []byte("hello")})
	require.NoError(t, err)
	mock.ExpectGet(bannersKey()).RedisNil()
	mock.ExpectSet(bannersKey(), payload, time.Minute).SetVal("OK")

	calls := 0
	rec := httptest.NewRecorder()
	cachedEcho(rc, &calls).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/banners", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(cacheCfg, db, zap.NewNop())

	payload, _ := json.Marshal(cachedResponse{Status: 200, ContentType: echo.MIMEApplicationJSON, Body: []byte(`[1]`)})
	mock.ExpectGet(bannersKey()).SetVal(string(payload))

	calls := 0
	rec := httptest.NewRecorder()
	cachedEcho(rc, &calls).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/banners", nil))

	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `[1]`, rec.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCacheInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(cacheCfg, db, zap.NewNop())

	mock.ExpectScan(0, "cache:banners:*", 100).SetVal([]string{"cache:banners:a", "cache:banners:b"}, 0)
	mock.ExpectDel("cache:banners:a", "cache:banners:b").SetVal(2)

	require.NoError(t, rc.Invalidate(context.Background(), "banners"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResponseCacheDisabled(t *testing.T) {
	rc := NewResponseCache(config.CacheConfig{Enabled: false}, nil, zap.NewNop())
	calls := 0
	rec := httptest.NewRecorder()
	cachedEcho(rc, &calls).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/banners", nil))

	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, rc.Invalidate(context.Background(), "banners"))
}
