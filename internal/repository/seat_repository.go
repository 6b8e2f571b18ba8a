package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strconv"
	"strings"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// SeatRepo stores the generated seat layout of halls.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts all seats of a hall in a single statement.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, hallID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO seats (hall_id, row_label, seat_number, seat_type, is_active) VALUES `)
	args := make([]any, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, hallID, s.Row, s.Column, string(s.Class), s.Enabled)
	}
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// DeleteByHallTx removes all seats of a hall.  Used before regenerating a
// layout whose dimensions changed.  No ownership check is done here.
func (r *SeatRepo) DeleteByHallTx(ctx context.Context, tx *sql.Tx, hallID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE hall_id = ?`, hallID)
	return err
}

// ListByHall returns the seats of a hall ordered row-major.  Rows sort by
// label length first so that "AA" follows "Z".
func (r *SeatRepo) ListByHall(ctx context.Context, hallID uint64) ([]model.Seat, error) {
	const q = `SELECT row_label, seat_number, seat_type, is_active
	           FROM seats
	           WHERE hall_id = ?
	           ORDER BY CHAR_LENGTH(row_label), row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Seat{}
	for rows.Next() {
		var (
			s     model.Seat
			class string
		)
		if err := rows.Scan(&s.Row, &s.Column, &class, &s.Enabled); err != nil {
			return nil, err
		}
		s.Class = model.SeatClass(class)
		s.Identifier = s.Row + strconv.Itoa(s.Column)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
