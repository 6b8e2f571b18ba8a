package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/booking"
	"github.com/iliyamo/cinema-backoffice/internal/checkin"
	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/queue"
	"github.com/iliyamo/cinema-backoffice/internal/repository"
	"github.com/iliyamo/cinema-backoffice/internal/service"
)

const dateLayout = "2006-01-02"

// OrderReader loads one raw order.  *repository.OrderRepo implements it.
type OrderReader interface {
	GetRawOrder(ctx context.Context, id uint64) (model.RawOrder, error)
}

// BookingHandler serves the manager booking list and check-in codes.
type BookingHandler struct {
	Loader    *booking.Loader
	Orders    OrderReader
	Ownership booking.OwnershipSource
	Encoder   *checkin.Encoder
	Events    service.Publisher
	Log       *zap.Logger
	Now       func() time.Time
}

// NewBookingHandler constructs a BookingHandler and panics if a dependency is nil.
func NewBookingHandler(loader *booking.Loader, orders OrderReader, ownership booking.OwnershipSource, enc *checkin.Encoder, events service.Publisher, log *zap.Logger) *BookingHandler {
	if loader == nil || orders == nil || ownership == nil || enc == nil || events == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Loader: loader, Orders: orders, Ownership: ownership, Encoder: enc, Events: events, Log: log, Now: time.Now}
}

// parseQuery reads the list filters.  Dates are calendar days in the
// encoder's location.
func (h *BookingHandler) parseQuery(c echo.Context) (booking.Query, error) {
	q := booking.Query{
		Text:   c.QueryParam("q"),
		Type:   booking.TypeFilter(strings.ToUpper(c.QueryParam("type"))),
		Status: booking.StatusFilter(strings.ToUpper(c.QueryParam("status"))),
		Sort:   booking.SortKey(strings.ToLower(c.QueryParam("sort"))),
	}
	switch q.Type {
	case "", booking.TypeAll, booking.TypeTicketed, booking.TypeFoodOnly:
	default:
		return q, errors.New("type must be ALL, TICKETED or FOOD_ONLY")
	}
	switch q.Status {
	case "", booking.StatusAll, booking.StatusActive, booking.StatusExpired:
	default:
		return q, errors.New("status must be ALL, ACTIVE or EXPIRED")
	}
	switch q.Sort {
	case "", booking.SortNewest, booking.SortShowTime, booking.SortAmount:
	default:
		return q, errors.New("sort must be newest, show_time or amount")
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, v, h.Encoder.Location)
		if err != nil {
			return q, errors.New(p.name + " must be YYYY-MM-DD")
		}
		*p.dst = &t
	}
	return q, nil
}

// List handles GET /v1/manager/bookings.
func (h *BookingHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	q, err := h.parseQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	all, err := h.Loader.Load(c.Request().Context(), p)
	switch {
	case errors.Is(err, booking.ErrSuperseded):
		return fail(c, http.StatusConflict, "superseded by a newer request")
	case err != nil:
		h.Log.Error("load bookings", zap.String("user", p.UserID.String()), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not load bookings")
	}
	items := booking.Search(all, q, h.Now())
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

// orderBookings loads an order and returns its bookings visible to p.  A
// manager asking for an order outside its venues gets not found.
func (h *BookingHandler) orderBookings(ctx context.Context, p model.Principal, id uint64) ([]model.Booking, int, error) {
	raw, err := h.Orders.GetRawOrder(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, http.StatusNotFound, errors.New("order not found")
	}
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("db error")
	}
	bs := booking.Aggregate(h.Log, []model.RawOrder{raw})
	if !p.IsAdmin() {
		owned, err := h.Ownership.OwnedVenueIDs(ctx, p)
		if err != nil {
			h.Log.Error("resolve owned venues", zap.String("user", p.UserID.String()), zap.Error(err))
			return nil, http.StatusBadGateway, errors.New("could not resolve owned venues")
		}
		bs = booking.ScopeToVenues(h.Log, bs, owned)
	}
	if len(bs) == 0 {
		return nil, http.StatusNotFound, errors.New("order not found")
	}
	return bs, 0, nil
}

type checkInView struct {
	Type     model.BookingType `json:"type"`
	Payload  any               `json:"payload"`
	Fallback bool              `json:"fallback"`
}

// CheckIn handles GET /v1/manager/orders/:id/checkin and returns the
// payload of every booking of the order.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	bs, status, err := h.orderBookings(ctx, p, id)
	if err != nil {
		return fail(c, status, err.Error())
	}

	views := make([]checkInView, 0, len(bs))
	ev := queue.CheckInIssuedEvent{
		OrderID:  strconv.FormatUint(id, 10),
		IssuedBy: p.UserID.String(),
		IssuedAt: h.Now().UTC().Format(time.RFC3339),
	}
	for _, b := range bs {
		res, err := h.Encoder.Encode(b)
		if err != nil {
			h.Log.Error("encode check-in", zap.Uint64("order_id", id), zap.Error(err))
			return fail(c, http.StatusInternalServerError, "could not encode check-in")
		}
		views = append(views, checkInView{Type: b.Type, Payload: res.Payload, Fallback: res.Fallback})
		ev.Fallback = ev.Fallback || res.Fallback
		if tp, ok := res.Payload.(checkin.TicketPayload); ok {
			ev.BookingIDs = append(ev.BookingIDs, tp.BookingID)
		}
		if !b.VenueID.IsZero() {
			ev.VenueIDs = append(ev.VenueIDs, b.VenueID.String())
		}
	}
	if err := h.Events.PublishCheckInIssued(ctx, ev); err != nil {
		h.Log.Warn("publish checkin.issued failed", zap.Error(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"order_id": ev.OrderID, "checkins": views})
}

// CheckInQR handles GET /v1/manager/orders/:id/checkin/qr?index=N and
// renders the N-th booking's payload (default 0) as a JPEG QR code.
func (h *BookingHandler) CheckInQR(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	index := 0
	if v := c.QueryParam("index"); v != "" {
		if index, err = strconv.Atoi(v); err != nil || index < 0 {
			return fail(c, http.StatusBadRequest, "index must be a non-negative integer")
		}
	}

	bs, status, err := h.orderBookings(c.Request().Context(), p, id)
	if err != nil {
		return fail(c, status, err.Error())
	}
	if index >= len(bs) {
		return fail(c, http.StatusNotFound, "booking index out of range")
	}
	res, err := h.Encoder.Encode(bs[index])
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not encode check-in")
	}
	payload, err := res.JSON()
	if err != nil {
		return fail(c, http.StatusInternalServerError, "could not encode check-in")
	}

	var img bytes.Buffer
	if err := checkin.WriteQR(&img, payload); err != nil {
		h.Log.Error("render check-in qr", zap.Uint64("order_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not render qr code")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, checkin.QRContentType, img.Bytes())
}
