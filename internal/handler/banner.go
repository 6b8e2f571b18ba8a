package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/media"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/ordering"
	"github.com/iliyamo/cinema-backoffice/internal/queue"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
	"github.com/iliyamo/cinema-backoffice/internal/service"
)

// BannerStore is the banner persistence used by BannerHandler.
// *repository.BannerRepo implements it.
type BannerStore interface {
	List(ctx context.Context, activeOnly bool) ([]model.Banner, error)
	GetByID(ctx context.Context, id uint64) (model.Banner, error)
	Create(ctx context.Context, b *model.Banner) error
	Update(ctx context.Context, id uint64, p repository.BannerPatch) error
	ordering.Store
}

// imageTypes are the accepted upload content types.
var imageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

// BannerHandler serves the storefront banners and their admin curation.
type BannerHandler struct {
	Banners   BannerStore
	Uploader  media.Uploader // nil disables file uploads; image_url must be sent instead
	Cache     Cache
	Events    service.Publisher
	Log       *zap.Logger
	MaxUpload int64
	Now       func() time.Time
}

// NewBannerHandler constructs a BannerHandler.  uploader may be nil.
func NewBannerHandler(banners BannerStore, uploader media.Uploader, cache Cache, events service.Publisher, log *zap.Logger, maxUpload int64) *BannerHandler {
	if banners == nil || cache == nil || events == nil {
		panic("nil dependency passed to NewBannerHandler")
	}
	return &BannerHandler{Banners: banners, Uploader: uploader, Cache: cache, Events: events, Log: log, MaxUpload: maxUpload, Now: time.Now}
}

func toItems(bs []model.Banner) []ordering.Item {
	items := make([]ordering.Item, len(bs))
	for i, b := range bs {
		items[i] = ordering.Item{ID: b.ID, Order: b.DisplayOrder, Active: b.Active}
	}
	return items
}

// view returns the banners of bs selected by f, sorted by display order.
func view(bs []model.Banner, f ordering.Filter) []model.Banner {
	byID := make(map[model.ID]model.Banner, len(bs))
	for _, b := range bs {
		byID[b.ID] = b
	}
	items := toItems(bs)
	ordering.SortByOrder(items)
	selected := f.Apply(items)
	out := make([]model.Banner, len(selected))
	for i, it := range selected {
		out[i] = byID[it.ID]
	}
	return out
}

// PublicList handles GET /v1/banners: active banners in display order.
func (h *BannerHandler) PublicList(c echo.Context) error {
	bs, err := h.Banners.List(c.Request().Context(), true)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": view(bs, ordering.FilterAll)})
}

// AdminList handles GET /v1/admin/banners?filter=all|active|inactive.
func (h *BannerHandler) AdminList(c echo.Context) error {
	bs, err := h.Banners.List(c.Request().Context(), false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": view(bs, ordering.ParseFilter(c.QueryParam("filter")))})
}

// Create handles POST /v1/admin/banners (multipart).  The image is either
// uploaded as the "image" file or referenced by an "image_url" field.  New
// banners are appended after the last one.
func (h *BannerHandler) Create(c echo.Context) error {
	b := &model.Banner{
		Title:   strings.TrimSpace(c.FormValue("title")),
		LinkURL: strings.TrimSpace(c.FormValue("link_url")),
		Active:  true,
	}
	if v := c.FormValue("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "active must be a boolean")
		}
		b.Active = active
	}
	if b.Title == "" {
		return fail(c, http.StatusBadRequest, "title is required")
	}

	url, status, err := h.image(c)
	if err != nil {
		return fail(c, status, err.Error())
	}
	b.ImageURL = url

	if err := h.Banners.Create(c.Request().Context(), b); err != nil {
		h.Log.Error("create banner", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not create banner")
	}
	h.invalidate(c.Request().Context())
	return c.JSON(http.StatusCreated, b)
}

// image resolves the banner image URL from the request.
func (h *BannerHandler) image(c echo.Context) (string, int, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if u := strings.TrimSpace(c.FormValue("image_url")); u != "" {
			return u, 0, nil
		}
		return "", http.StatusBadRequest, errors.New("image or image_url is required")
	}
	if h.Uploader == nil {
		return "", http.StatusServiceUnavailable, errors.New("image uploads are not configured")
	}
	if h.MaxUpload > 0 && fh.Size > h.MaxUpload {
		return "", http.StatusRequestEntityTooLarge, errors.New("image too large")
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if !imageTypes[ct] {
		return "", http.StatusUnsupportedMediaType, errors.New("image must be jpeg, png or webp")
	}
	f, err := fh.Open()
	if err != nil {
		return "", http.StatusBadRequest, errors.New("unreadable image")
	}
	defer f.Close()

	url, err := h.Uploader.Upload(c.Request().Context(), fh.Filename, ct, f)
	if err != nil {
		h.Log.Error("upload banner image", zap.Error(err))
		return "", http.StatusBadGateway, errors.New("image upload failed")
	}
	return url, 0, nil
}

// Patch handles PATCH /v1/admin/banners/:id.
func (h *BannerHandler) Patch(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Title   *string `json:"title"`
		LinkURL *string `json:"link_url"`
		Active  *bool   `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Title != nil {
		t := strings.TrimSpace(*body.Title)
		if t == "" {
			return fail(c, http.StatusBadRequest, "title cannot be empty")
		}
		body.Title = &t
	}

	ctx := c.Request().Context()
	err := h.Banners.Update(ctx, id, repository.BannerPatch{Title: body.Title, LinkURL: body.LinkURL, Active: body.Active})
	if errors.Is(err, repository.ErrBannerNotFound) {
		return fail(c, http.StatusNotFound, "banner not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not update banner")
	}
	b, err := h.Banners.GetByID(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusOK, b)
}

// Reorder handles POST /v1/admin/banners/reorder.  The dragged banner
// takes the target's place within the filtered view; only banners whose
// rank changes are written.  Partial write failures still return 200 with
// the refreshed list, the failed count and an error message.
func (h *BannerHandler) Reorder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var body struct {
		DraggedID model.ID `json:"dragged_id"`
		TargetID  model.ID `json:"target_id"`
		Filter    string   `json:"filter"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if body.DraggedID.IsZero() || body.TargetID.IsZero() {
		return fail(c, http.StatusBadRequest, "dragged_id and target_id are required")
	}
	filter := ordering.ParseFilter(strings.ToLower(body.Filter))

	ctx := c.Request().Context()
	all, err := h.Banners.List(ctx, false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	full := toItems(all)
	ordering.SortByOrder(full)
	filtered := filter.Apply(full)
	if !contains(filtered, body.DraggedID) || !contains(filtered, body.TargetID) {
		return fail(c, http.StatusNotFound, "banner not in the selected view")
	}

	updates := ordering.Reconcile(full, filtered, body.DraggedID, body.TargetID)
	res, applyErr := ordering.Apply(ctx, h.Banners, updates)
	if applyErr != nil {
		h.Log.Warn("banner reorder partially failed", zap.Int("failed", len(res.Failed)), zap.Error(applyErr))
	}

	// Re-read even after a failure so the client sees what was persisted.
	fresh, err := h.Banners.List(ctx, false)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	if len(res.Applied) > 0 {
		h.invalidate(ctx)
		h.publishReorder(ctx, p, body.DraggedID, body.TargetID, filter, res)
	}

	resp := echo.Map{
		"items":   view(fresh, filter),
		"updated": len(res.Applied),
		"failed":  len(res.Failed),
	}
	if applyErr != nil {
		resp["error"] = fmt.Sprintf("%d of %d display order updates failed", len(res.Failed), len(updates))
	}
	return c.JSON(http.StatusOK, resp)
}

func contains(items []ordering.Item, id model.ID) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (h *BannerHandler) publishReorder(ctx context.Context, p model.Principal, dragged, target model.ID, f ordering.Filter, res ordering.Result) {
	ranks := make([]queue.BannerRank, len(res.Applied))
	for i, u := range res.Applied {
		ranks[i] = queue.BannerRank{ID: u.ID.String(), Order: u.Order}
	}
	ev := queue.BannerReorderedEvent{
		ActorID:   p.UserID.String(),
		Filter:    string(f),
		DraggedID: dragged.String(),
		TargetID:  target.String(),
		Updated:   ranks,
		Failed:    len(res.Failed),
		At:        h.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Events.PublishBannerReordered(ctx, ev); err != nil {
		h.Log.Warn("publish banner.reordered failed", zap.Error(err))
	}
}

func (h *BannerHandler) invalidate(ctx context.Context) {
	if err := h.Cache.Invalidate(ctx, TagBanners); err != nil {
		h.Log.Warn("cache invalidate failed", zap.String("tag", TagBanners), zap.Error(err))
	}
}
