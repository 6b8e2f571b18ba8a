package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/cinema-backoffice/internal/middleware"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	q "github.com/iliyamo/cinema-backoffice/internal/queue"
)

var (
	manager = model.Principal{UserID: "7", Role: model.RoleManager}
	admin   = model.Principal{UserID: "1", Role: model.RoleAdmin}
)

// request builds an echo context for a direct handler call.  p is set as
// the caller unless it is the zero Principal.
func request(method, target string, body io.Reader, contentType string, p model.Principal, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if !p.UserID.IsZero() {
		middleware.SetPrincipal(c, p)
	}
	return c, rec
}

func jsonRequest(method, target, body string, p model.Principal, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return request(method, target, r, echo.MIMEApplicationJSON, p, params...)
}

type fakeCache struct {
	mu   sync.Mutex
	tags []string
}

func (f *fakeCache) Invalidate(_ context.Context, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, tag)
	return nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishBannerReordered(ctx context.Context, ev q.BannerReorderedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) PublishCheckInIssued(ctx context.Context, ev q.CheckInIssuedEvent) error {
	return m.Called(ctx, ev).Error(0)
}
