package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer identifies who placed an order.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// RawOrder is an order as read from storage: one row of orders plus its
// ticket and combo lines.  Ticket columns coming from outer joins are
// pointers because a deleted showtime, room or seat leaves them NULL.
type RawOrder struct {
	OrderID       ID               `json:"order_id"`
	Customer      Customer         `json:"customer"`
	PaymentMethod string           `json:"payment_method"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Tickets       []TicketLineItem `json:"tickets"`
	Foods         []FoodLineItem   `json:"foods"`
}

// TicketLineItem is one purchased seat of an order.
type TicketLineItem struct {
	ShowtimeID ID              `json:"showtime_id"`
	ShowStart  *time.Time      `json:"show_start"`
	VenueID    ID              `json:"venue_id"`
	VenueName  string          `json:"venue_name"`
	RoomID     ID              `json:"room_id"`
	RoomName   string          `json:"room_name"`
	RoomType   string          `json:"room_type"`
	SeatID     string          `json:"seat_id"`
	MovieID    ID              `json:"movie_id"`
	MovieTitle string          `json:"movie_title"`
	Price      decimal.Decimal `json:"price"`
}

// FoodLineItem is one combo line of an order.
type FoodLineItem struct {
	ComboID  ID              `json:"combo_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// LineTotal is price times quantity.
func (f FoodLineItem) LineTotal() decimal.Decimal {
	return f.Price.Mul(decimal.NewFromInt(int64(f.Quantity)))
}
