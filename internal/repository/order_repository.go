package repository

// This file reads orders together with their ticket and combo lines.  The
// rows are returned as model.RawOrder; turning them into bookings is the
// job of the booking package.  Ticket joins are LEFT JOINs so that a
// showtime, hall or seat deleted after the sale shows up as missing fields
// instead of silently dropping the ticket.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrOrderNotFound is returned when GetRawOrder matches no order.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo loads orders in their raw, denormalized form.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo with the given DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const (
	selectOrders = `SELECT o.id, o.customer_name, o.customer_phone, o.customer_email,
	                       o.payment_method, o.total_amount, o.created_at
	                FROM orders o`
	selectTickets = `SELECT ot.order_id, ot.showtime_id, st.start_time, c.id, c.name,
	                        h.id, h.name, h.room_type, CONCAT(s.row_label, s.seat_number),
	                        m.id, m.title, ot.price
	                 FROM order_tickets ot
	                 LEFT JOIN showtimes st ON st.id = ot.showtime_id
	                 LEFT JOIN halls h ON h.id = st.hall_id
	                 LEFT JOIN cinemas c ON c.id = h.cinema_id
	                 LEFT JOIN seats s ON s.id = ot.seat_id
	                 LEFT JOIN movies m ON m.id = st.movie_id`
	selectCombos = `SELECT oc.order_id, oc.combo_id, cb.name, oc.quantity, oc.price
	                FROM order_combos oc
	                JOIN combos cb ON cb.id = oc.combo_id`
)

// ListRawOrders returns every order, newest first.
func (r *OrderRepo) ListRawOrders(ctx context.Context) ([]model.RawOrder, error) {
	return r.load(ctx, ` ORDER BY o.created_at DESC, o.id DESC`, "", nil)
}

// GetRawOrder returns one order with its lines.
func (r *OrderRepo) GetRawOrder(ctx context.Context, id uint64) (model.RawOrder, error) {
	out, err := r.load(ctx, ` WHERE o.id = ?`, ` WHERE order_id = ?`, []any{id})
	if err != nil {
		return model.RawOrder{}, err
	}
	if len(out) == 0 {
		return model.RawOrder{}, ErrOrderNotFound
	}
	return out[0], nil
}

// load runs the three queries and stitches the lines onto their orders.
// orderWhere filters orders; lineWhere, when set, filters both line
// tables on their order_id column.
func (r *OrderRepo) load(ctx context.Context, orderWhere, lineWhere string, args []any) ([]model.RawOrder, error) {
	var out []model.RawOrder
	index := map[uint64]int{}

	rows, err := r.db.QueryContext(ctx, selectOrders+orderWhere, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    uint64
			email sql.NullString
			total decimal.NullDecimal
			o     model.RawOrder
		)
		if err := rows.Scan(&id, &o.Customer.Name, &o.Customer.Phone, &email, &o.PaymentMethod, &total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.OrderID = model.MustID(id)
		o.Customer.Email = email.String
		if total.Valid {
			t := total.Decimal
			o.TotalAmount = &t
		}
		index[id] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ticketQ, comboQ := selectTickets, selectCombos
	if lineWhere != "" {
		ticketQ += ` WHERE ot.order_id = ?`
		comboQ += ` WHERE oc.order_id = ?`
	}
	ticketQ += ` ORDER BY ot.order_id, ot.id`
	comboQ += ` ORDER BY oc.order_id, oc.id`

	if err := r.loadTickets(ctx, ticketQ, args, out, index); err != nil {
		return nil, err
	}
	if err := r.loadCombos(ctx, comboQ, args, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepo) loadTickets(ctx context.Context, q string, args []any, out []model.RawOrder, index map[uint64]int) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID, showtimeID         uint64
			start                       sql.NullTime
			venueID, roomID, movieID    sql.NullInt64
			venue, room, roomType, seat sql.NullString
			movie                       sql.NullString
			t                           model.TicketLineItem
		)
		if err := rows.Scan(&orderID, &showtimeID, &start, &venueID, &venue, &roomID, &room, &roomType, &seat, &movieID, &movie, &t.Price); err != nil {
			return fmt.Errorf("scan ticket: %w", err)
		}
		pos, ok := index[orderID]
		if !ok {
			continue
		}
		t.ShowtimeID = model.MustID(showtimeID)
		if start.Valid {
			s := start.Time
			t.ShowStart = &s
		}
		t.VenueID = nullID(venueID)
		t.RoomID = nullID(roomID)
		t.MovieID = nullID(movieID)
		t.VenueName, t.RoomName, t.RoomType = venue.String, room.String, roomType.String
		t.SeatID, t.MovieTitle = seat.String, movie.String
		out[pos].Tickets = append(out[pos].Tickets, t)
	}
	return rows.Err()
}

func (r *OrderRepo) loadCombos(ctx context.Context, q string, args []any, out []model.RawOrder, index map[uint64]int) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query combos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID, comboID uint64
			f                model.FoodLineItem
		)
		if err := rows.Scan(&orderID, &comboID, &f.Name, &f.Quantity, &f.Price); err != nil {
			return fmt.Errorf("scan combo: %w", err)
		}
		pos, ok := index[orderID]
		if !ok {
			continue
		}
		f.ComboID = model.MustID(comboID)
		out[pos].Foods = append(out[pos].Foods, f)
	}
	return rows.Err()
}

func nullID(n sql.NullInt64) model.ID {
	if !n.Valid {
		return ""
	}
	return model.MustID(n.Int64)
}
