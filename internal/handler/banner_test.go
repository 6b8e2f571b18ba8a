package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/queue"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
)

type mockBannerStore struct{ mock.Mock }

func (m *mockBannerStore) List(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	args := m.Called(ctx, activeOnly)
	bs, _ := args.Get(0).([]model.Banner)
	return bs, args.Error(1)
}

func (m *mockBannerStore) GetByID(ctx context.Context, id uint64) (model.Banner, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Banner), args.Error(1)
}

func (m *mockBannerStore) Create(ctx context.Context, b *model.Banner) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBannerStore) Update(ctx context.Context, id uint64, p repository.BannerPatch) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockBannerStore) UpdateDisplayOrder(ctx context.Context, id model.ID, order int) error {
	return m.Called(ctx, id, order).Error(0)
}

type fakeUploader struct {
	name, contentType string
	body              []byte
	err               error
}

func (f *fakeUploader) Upload(_ context.Context, filename, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name, f.contentType = filename, contentType
	f.body, _ = io.ReadAll(body)
	return "https://cdn.example.com/banners/" + filename, nil
}

var frozen = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newBannerHandler(store *mockBannerStore, up *fakeUploader) (*BannerHandler, *fakeCache, *mockPublisher) {
	cache, pub := &fakeCache{}, &mockPublisher{}
	var h *BannerHandler
	if up == nil {
		h = NewBannerHandler(store, nil, cache, pub, zap.NewNop(), 1<<20)
	} else {
		h = NewBannerHandler(store, up, cache, pub, zap.NewNop(), 1<<20)
	}
	h.Now = func() time.Time { return frozen }
	return h, cache, pub
}

func banner(id string, order int, active bool) model.Banner {
	return model.Banner{ID: model.ID(id), Title: "B" + id, ImageURL: "https://img/" + id, DisplayOrder: order, Active: active}
}

func TestPublicListSortsByDisplayOrder(t *testing.T) {
	store := &mockBannerStore{}
	store.On("List", mock.Anything, true).Return([]model.Banner{banner("2", 5, true), banner("1", 1, true), banner("3", 1, true)}, nil)
	h, _, _ := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodGet, "/v1/banners", "", model.Principal{})
	require.NoError(t, h.PublicList(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var ids []string
	for _, r := range gjson.Get(rec.Body.String(), "items.#.id").Array() {
		ids = append(ids, r.String())
	}
	assert.Equal(t, []string{"1", "3", "2"}, ids)
}

func TestAdminListFilter(t *testing.T) {
	store := &mockBannerStore{}
	store.On("List", mock.Anything, false).Return([]model.Banner{banner("1", 0, true), banner("2", 1, false)}, nil)
	h, _, _ := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodGet, "/v1/admin/banners?filter=inactive", "", admin)
	require.NoError(t, h.AdminList(c))
	assert.Equal(t, `["2"]`, gjson.Get(rec.Body.String(), "items.#.id").Raw)
}

func TestReorderWithinActiveView(t *testing.T) {
	store := &mockBannerStore{}
	before := []model.Banner{banner("1", 0, true), banner("2", 1, false), banner("3", 2, true), banner("4", 3, true)}
	after := []model.Banner{banner("1", 1, true), banner("2", 1, false), banner("3", 2, true), banner("4", 0, true)}
	store.On("List", mock.Anything, false).Return(before, nil).Once()
	store.On("List", mock.Anything, false).Return(after, nil).Once()
	store.On("UpdateDisplayOrder", mock.Anything, model.ID("4"), 0).Return(nil).Once()
	store.On("UpdateDisplayOrder", mock.Anything, model.ID("1"), 1).Return(nil).Once()

	h, cache, pub := newBannerHandler(store, nil)
	pub.On("PublishBannerReordered", mock.Anything, mock.MatchedBy(func(ev queue.BannerReorderedEvent) bool {
		return ev.ActorID == "1" && ev.Filter == "active" && ev.DraggedID == "4" && ev.TargetID == "1" &&
			len(ev.Updated) == 2 && ev.Failed == 0 && ev.At == "2025-03-01T12:00:00Z"
	})).Return(nil).Once()

	c, rec := jsonRequest(http.MethodPost, "/v1/admin/banners/reorder", `{"dragged_id":4,"target_id":"1","filter":"ACTIVE"}`, admin)
	require.NoError(t, h.Reorder(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Equal(t, `["4","1","3"]`, gjson.Get(body, "items.#.id").Raw)
	assert.Equal(t, int64(2), gjson.Get(body, "updated").Int())
	assert.Equal(t, int64(0), gjson.Get(body, "failed").Int())
	assert.False(t, gjson.Get(body, "error").Exists())
	assert.Equal(t, []string{TagBanners}, cache.tags)
	store.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestReorderPartialFailure(t *testing.T) {
	store := &mockBannerStore{}
	before := []model.Banner{banner("1", 0, true), banner("2", 1, true), banner("3", 2, true)}
	store.On("List", mock.Anything, false).Return(before, nil)
	// Moving 3 to the front rewrites all three ranks.
	store.On("UpdateDisplayOrder", mock.Anything, model.ID("3"), 0).Return(nil)
	store.On("UpdateDisplayOrder", mock.Anything, model.ID("1"), 1).Return(errors.New("lock wait timeout"))
	store.On("UpdateDisplayOrder", mock.Anything, model.ID("2"), 2).Return(nil)

	h, cache, pub := newBannerHandler(store, nil)
	pub.On("PublishBannerReordered", mock.Anything, mock.MatchedBy(func(ev queue.BannerReorderedEvent) bool {
		ids := make([]string, len(ev.Updated))
		for i, u := range ev.Updated {
			ids[i] = u.ID
		}
		sort.Strings(ids)
		return ev.Failed == 1 && reflect.DeepEqual(ids, []string{"2", "3"})
	})).Return(errors.New("broker down"))

	c, rec := jsonRequest(http.MethodPost, "/v1/admin/banners/reorder", `{"dragged_id":"3","target_id":"1"}`, admin)
	require.NoError(t, h.Reorder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "updated").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "failed").Int())
	assert.Equal(t, "1 of 3 display order updates failed", gjson.Get(body, "error").String())
	assert.Equal(t, []string{TagBanners}, cache.tags)
	pub.AssertExpectations(t)
}

func TestReorderNothingToWrite(t *testing.T) {
	store := &mockBannerStore{}
	store.On("List", mock.Anything, false).Return([]model.Banner{banner("1", 0, true), banner("2", 1, true)}, nil)
	h, cache, pub := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodPost, "/v1/admin/banners/reorder", `{"dragged_id":"2","target_id":"2"}`, admin)
	require.NoError(t, h.Reorder(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "updated").Int())
	assert.Empty(t, cache.tags)
	pub.AssertNotCalled(t, "PublishBannerReordered", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateDisplayOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestReorderOutsideView(t *testing.T) {
	store := &mockBannerStore{}
	store.On("List", mock.Anything, false).Return([]model.Banner{banner("1", 0, true), banner("2", 1, false)}, nil)
	h, _, _ := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodPost, "/v1/admin/banners/reorder", `{"dragged_id":"2","target_id":"1","filter":"active"}`, admin)
	require.NoError(t, h.Reorder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = jsonRequest(http.MethodPost, "/v1/admin/banners/reorder", `{"target_id":"1"}`, admin)
	require.NoError(t, h.Reorder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type part struct {
	field, filename, contentType, value string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, w.WriteField(p.field, p.value))
			continue
		}
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		hdr.Set("Content-Type", p.contentType)
		fw, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.value))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateBannerUploadsImage(t *testing.T) {
	store := &mockBannerStore{}
	store.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Banner) bool {
		return b.Title == "Spring" && !b.Active && b.ImageURL == "https://cdn.example.com/banners/spring.png"
	})).Run(func(args mock.Arguments) {
		b := args.Get(1).(*model.Banner)
		b.ID, b.DisplayOrder = "12", 4
	}).Return(nil)
	up := &fakeUploader{}
	h, cache, _ := newBannerHandler(store, up)

	body, ct := multipartBody(t,
		part{field: "title", value: " Spring "},
		part{field: "active", value: "false"},
		part{field: "image", filename: "spring.png", contentType: "image/png", value: "\x89PNG"},
	)
	c, rec := request(http.MethodPost, "/v1/admin/banners", body, ct, admin)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "12", gjson.Get(rec.Body.String(), "id").String())
	assert.Equal(t, int64(4), gjson.Get(rec.Body.String(), "display_order").Int())
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, []byte("\x89PNG"), up.body)
	assert.Equal(t, []string{TagBanners}, cache.tags)
}

func TestCreateBannerImageErrors(t *testing.T) {
	cases := []struct {
		name   string
		up     *fakeUploader
		parts  []part
		status int
	}{
		{"missing title", &fakeUploader{}, []part{{field: "image_url", value: "https://x"}}, http.StatusBadRequest},
		{"missing image", &fakeUploader{}, []part{{field: "title", value: "T"}}, http.StatusBadRequest},
		{"bad active", &fakeUploader{}, []part{{field: "title", value: "T"}, {field: "active", value: "maybe"}}, http.StatusBadRequest},
		{"uploads disabled", nil, []part{{field: "title", value: "T"}, {field: "image", filename: "a.png", contentType: "image/png", value: "x"}}, http.StatusServiceUnavailable},
		{"wrong type", &fakeUploader{}, []part{{field: "title", value: "T"}, {field: "image", filename: "a.gif", contentType: "image/gif", value: "x"}}, http.StatusUnsupportedMediaType},
		{"upload fails", &fakeUploader{err: errors.New("denied")}, []part{{field: "title", value: "T"}, {field: "image", filename: "a.png", contentType: "image/png", value: "x"}}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockBannerStore{}
			h, _, _ := newBannerHandler(store, tc.up)
			body, ct := multipartBody(t, tc.parts...)
			c, rec := request(http.MethodPost, "/v1/admin/banners", body, ct, admin)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tc.status, rec.Code)
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateBannerTooLarge(t *testing.T) {
	store := &mockBannerStore{}
	h, _, _ := newBannerHandler(store, &fakeUploader{})
	h.MaxUpload = 3
	body, ct := multipartBody(t, part{field: "title", value: "T"}, part{field: "image", filename: "a.png", contentType: "image/png", value: "12345"})
	c, rec := request(http.MethodPost, "/v1/admin/banners", body, ct, admin)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPatchBanner(t *testing.T) {
	store := &mockBannerStore{}
	active := false
	store.On("Update", mock.Anything, uint64(5), mock.MatchedBy(func(p repository.BannerPatch) bool {
		return p.Title != nil && *p.Title == "New" && p.Active != nil && !*p.Active && p.LinkURL == nil
	})).Return(nil)
	updated := banner("5", 2, active)
	updated.Title = "New"
	store.On("GetByID", mock.Anything, uint64(5)).Return(updated, nil)
	h, cache, _ := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodPatch, "/v1/admin/banners/5", `{"title":" New ","active":false}`, admin, "id", "5")
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New", gjson.Get(rec.Body.String(), "title").String())
	assert.Equal(t, []string{TagBanners}, cache.tags)
}

func TestPatchBannerNotFound(t *testing.T) {
	store := &mockBannerStore{}
	store.On("Update", mock.Anything, uint64(5), mock.Anything).Return(repository.ErrBannerNotFound)
	h, cache, _ := newBannerHandler(store, nil)

	c, rec := jsonRequest(http.MethodPatch, "/v1/admin/banners/5", `{"active":true}`, admin, "id", "5")
	require.NoError(t, h.Patch(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, cache.tags)

	c, rec = jsonRequest(http.MethodPatch, "/v1/admin/banners/5", `{"title":"  "}`, admin, "id", "5")
	require.NoError(t, h.Patch(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
