package handler // handler package contains hall and seat layout handlers

import (
	"database/sql" // sql provides transactions
	"errors"       // errors package for comparing sentinels
	"fmt"          // fmt wraps errors
	"math/rand"    // rand seeds reproducible previews
	"net/http"     // http defines status code constants
	"strings"      // strings trims names

	"github.com/labstack/echo/v4" // echo framework supplies request context
	"go.uber.org/zap"             // zap logs failed writes

	"github.com/iliyamo/cinema-backoffice/internal/checkin"    // checkin formats room types
	"github.com/iliyamo/cinema-backoffice/internal/model"      // model defines halls and layouts
	"github.com/iliyamo/cinema-backoffice/internal/repository" // repository persists halls and seats
	"github.com/iliyamo/cinema-backoffice/internal/seatmap"    // seatmap generates layouts
)

// Room size limits accepted by the layout endpoints.
const (
	maxRows = 100
	maxCols = 60
)

// LayoutHandler creates halls with a generated seat map and serves layouts.
type LayoutHandler struct {
	CinemaRepo *repository.CinemaRepo // CinemaRepo verifies hall ownership
	HallRepo   *repository.HallRepo   // HallRepo provides hall persistence
	SeatRepo   *repository.SeatRepo   // SeatRepo stores generated seats
	Cache      Cache                  // Cache drops public layouts after writes
	Log        *zap.Logger
}

// NewLayoutHandler constructs a LayoutHandler and panics if a repository is nil.
func NewLayoutHandler(cinemas *repository.CinemaRepo, halls *repository.HallRepo, seats *repository.SeatRepo, cache Cache, log *zap.Logger) *LayoutHandler {
	if cinemas == nil || halls == nil || seats == nil || cache == nil {
		panic("nil dependency passed to NewLayoutHandler")
	}
	return &LayoutHandler{CinemaRepo: cinemas, HallRepo: halls, SeatRepo: seats, Cache: cache, Log: log}
}

func validSize(rows, cols int) bool {
	return rows >= 1 && rows <= maxRows && cols >= 1 && cols <= maxCols
}

// source returns a seeded random source, or nil for a time-seeded one.
func source(seed *int64) seatmap.Rand {
	if seed == nil {
		return nil
	}
	return rand.New(rand.NewSource(*seed))
}

type layoutView struct {
	Layout model.RoomLayout  `json:"layout"`
	Grid   []model.LayoutRow `json:"grid"`
}

func viewOf(l model.RoomLayout) layoutView {
	return layoutView{Layout: l, Grid: l.Grid()}
}

// Preview handles POST /v1/layouts/preview and returns a generated layout
// without storing it.  Passing the same seed reproduces the same layout.
func (h *LayoutHandler) Preview(c echo.Context) error {
	var body struct {
		Rows int    `json:"rows"`
		Cols int    `json:"cols"`
		Seed *int64 `json:"seed"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if !validSize(body.Rows, body.Cols) {
		return fail(c, http.StatusBadRequest, "rows must be 1-100 and cols 1-60")
	}
	return c.JSON(http.StatusOK, viewOf(seatmap.Generate(body.Rows, body.Cols, source(body.Seed))))
}

// CreateHall handles POST /v1/halls.  The hall row and its generated seats
// are written in one transaction.
func (h *LayoutHandler) CreateHall(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ownerID, err := p.UserID.Uint64()
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	var body struct {
		CinemaID model.ID `json:"cinema_id"`
		Name     string   `json:"name"`
		RoomType string   `json:"room_type"`
		SeatRows int      `json:"seat_rows"`
		SeatCols int      `json:"seat_cols"`
		Seed     *int64   `json:"seed"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	cinemaID, err := body.CinemaID.Uint64()
	if err != nil || body.Name == "" || !validSize(body.SeatRows, body.SeatCols) {
		return fail(c, http.StatusBadRequest, "cinema_id, name, seat_rows (1-100) and seat_cols (1-60) are required")
	}

	ctx := c.Request().Context()
	if _, err := h.CinemaRepo.GetByIDAndOwner(ctx, cinemaID, ownerID); err != nil {
		if errors.Is(err, repository.ErrCinemaNotFound) {
			return fail(c, http.StatusNotFound, "cinema not found")
		}
		return fail(c, http.StatusInternalServerError, "failed to verify cinema")
	}

	hall := &model.Hall{
		CinemaID: body.CinemaID,
		OwnerID:  p.UserID,
		Name:     body.Name,
		RoomType: strings.ToUpper(strings.TrimSpace(body.RoomType)),
		SeatRows: body.SeatRows,
		SeatCols: body.SeatCols,
	}
	layout := seatmap.Generate(body.SeatRows, body.SeatCols, source(body.Seed))

	err = h.inTx(c, func(tx *sql.Tx) error {
		if err := h.HallRepo.CreateTx(ctx, tx, hall); err != nil {
			return err
		}
		hallID, err := hall.ID.Uint64()
		if err != nil {
			return fmt.Errorf("hall id %q: %w", hall.ID, err)
		}
		return h.SeatRepo.CreateBulkTx(ctx, tx, hallID, layout.Seats)
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "hall name already used in this cinema")
	case err != nil:
		h.Log.Error("create hall", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not create hall")
	}
	h.invalidate(c, TagLayouts)
	return c.JSON(http.StatusCreated, echo.Map{"hall": hall, "layout": viewOf(layout)})
}

// UpdateHall handles PUT/PATCH /v1/halls/:id.  When the dimensions change
// the seat map is regenerated and replaces the stored seats.
func (h *LayoutHandler) UpdateHall(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	ownerID, err := p.UserID.Uint64()
	if err != nil {
		return fail(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Name     *string `json:"name"`
		RoomType *string `json:"room_type"`
		SeatRows *int    `json:"seat_rows"`
		SeatCols *int    `json:"seat_cols"`
		Seed     *int64  `json:"seed"`
	}
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	hall, err := h.HallRepo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrHallNotFound) {
			return fail(c, http.StatusNotFound, "hall not found")
		}
		return fail(c, http.StatusInternalServerError, "db error")
	}

	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		hall.Name = strings.TrimSpace(*body.Name)
	}
	if body.RoomType != nil {
		hall.RoomType = strings.ToUpper(strings.TrimSpace(*body.RoomType))
	}
	rows, cols := hall.SeatRows, hall.SeatCols
	if body.SeatRows != nil {
		rows = *body.SeatRows
	}
	if body.SeatCols != nil {
		cols = *body.SeatCols
	}
	if !validSize(rows, cols) {
		return fail(c, http.StatusBadRequest, "rows must be 1-100 and cols 1-60")
	}
	regenerate := rows != hall.SeatRows || cols != hall.SeatCols
	hall.SeatRows, hall.SeatCols = rows, cols

	var layout model.RoomLayout
	if regenerate {
		layout = seatmap.Generate(rows, cols, source(body.Seed))
	}
	err = h.inTx(c, func(tx *sql.Tx) error {
		if err := h.HallRepo.UpdateTx(ctx, tx, hall); err != nil {
			return err
		}
		if !regenerate {
			return nil
		}
		if err := h.SeatRepo.DeleteByHallTx(ctx, tx, id); err != nil {
			return err
		}
		return h.SeatRepo.CreateBulkTx(ctx, tx, id, layout.Seats)
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, "hall name already used in this cinema")
	case errors.Is(err, repository.ErrHallNotFound):
		return fail(c, http.StatusNotFound, "hall not found")
	case err != nil:
		h.Log.Error("update hall", zap.Uint64("hall_id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "could not update hall")
	}
	h.invalidate(c, TagLayouts)

	resp := echo.Map{"hall": hall, "regenerated": regenerate}
	if regenerate {
		resp["layout"] = viewOf(layout)
	}
	return c.JSON(http.StatusOK, resp)
}

// PublicLayout handles GET /v1/halls/:id/seats/layout for active halls.
func (h *LayoutHandler) PublicLayout(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	hall, err := h.HallRepo.GetByID(ctx, id)
	if err != nil || !hall.IsActive {
		if err == nil || errors.Is(err, repository.ErrHallNotFound) {
			return fail(c, http.StatusNotFound, "hall not found")
		}
		return fail(c, http.StatusInternalServerError, "db error")
	}
	seats, err := h.SeatRepo.ListByHall(ctx, id)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "db error")
	}
	layout := model.RoomLayout{
		Rows:     hall.SeatRows,
		Columns:  hall.SeatCols,
		Walkways: seatmap.WalkwayColumns(hall.SeatCols),
		Seats:    seats,
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hall_id": hall.ID,
		"name":    hall.Name,
		"format":  checkin.Format(hall.RoomType),
		"layout":  viewOf(layout),
	})
}

// inTx runs fn in a transaction on the hall repository's database.
func (h *LayoutHandler) inTx(c echo.Context, fn func(tx *sql.Tx) error) error {
	tx, err := h.HallRepo.DB().BeginTx(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (h *LayoutHandler) invalidate(c echo.Context, tag string) {
	if err := h.Cache.Invalidate(c.Request().Context(), tag); err != nil {
		h.Log.Warn("cache invalidate failed", zap.String("tag", tag), zap.Error(err))
	}
}
