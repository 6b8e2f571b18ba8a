package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrHallNotFound is returned when a hall lookup fails.
var ErrHallNotFound = errors.New("hall not found")

// mysqlDuplicateEntry is the server error number for unique key violations.
const mysqlDuplicateEntry = 1062

// HallRepo provides methods to create, read and update halls.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// DB exposes the handle so callers can run a hall write and its seat
// rebuild in one transaction.
func (r *HallRepo) DB() *sql.DB { return r.db }

const hallColumns = `id, owner_id, cinema_id, name, room_type, seat_rows, seat_cols, is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHall(s rowScanner) (*model.Hall, error) {
	var (
		id, ownerID, cinemaID uint64
		h                     model.Hall
	)
	if err := s.Scan(&id, &ownerID, &cinemaID, &h.Name, &h.RoomType, &h.SeatRows, &h.SeatCols, &h.IsActive); err != nil {
		return nil, err
	}
	h.ID, h.OwnerID, h.CinemaID = model.MustID(id), model.MustID(ownerID), model.MustID(cinemaID)
	return &h, nil
}

// CreateTx inserts a new hall inside tx and sets its ID.  A duplicate name
// within the same cinema yields ErrConflict.
func (r *HallRepo) CreateTx(ctx context.Context, tx *sql.Tx, h *model.Hall) error {
	ownerID, err := h.OwnerID.Uint64()
	if err != nil {
		return err
	}
	cinemaID, err := h.CinemaID.Uint64()
	if err != nil {
		return err
	}
	const q = `INSERT INTO halls (owner_id, cinema_id, name, room_type, seat_rows, seat_cols)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ownerID, cinemaID, h.Name, h.RoomType, h.SeatRows, h.SeatCols)
	if err != nil {
		return translateDup(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = model.MustID(uint64(id))
	h.IsActive = true
	return nil
}

// GetByID retrieves a hall by its ID regardless of owner.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	h, err := scanHall(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHallNotFound
	}
	return h, err
}

// GetByIDAndOwner retrieves a hall but only if it belongs to the given
// owner.  A hall owned by someone else is reported as not found.
func (r *HallRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls WHERE id = ? AND owner_id = ?`
	h, err := scanHall(r.db.QueryRowContext(ctx, q, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHallNotFound
	}
	return h, err
}

// UpdateTx writes name, room type and dimensions of an owned hall.
// Returns ErrHallNotFound when no row matches.
func (r *HallRepo) UpdateTx(ctx context.Context, tx *sql.Tx, h *model.Hall) error {
	id, err := h.ID.Uint64()
	if err != nil {
		return err
	}
	ownerID, err := h.OwnerID.Uint64()
	if err != nil {
		return err
	}
	const q = `UPDATE halls
	           SET name = ?, room_type = ?, seat_rows = ?, seat_cols = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND owner_id = ?`
	res, err := tx.ExecContext(ctx, q, h.Name, h.RoomType, h.SeatRows, h.SeatCols, id, ownerID)
	if err != nil {
		return translateDup(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHallNotFound
	}
	return nil
}

func translateDup(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return ErrConflict
	}
	return err
}
