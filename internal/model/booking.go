package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingType distinguishes seat reservations from counter food orders.
type BookingType string

const (
	BookingTicketed BookingType = "TICKETED"
	BookingFoodOnly BookingType = "FOOD_ONLY"
)

// Booking is a logical reservation rebuilt from a RawOrder.  An order whose
// tickets span several shows yields one Booking per show, all sharing the
// same BookingID (the order id).  Show fields are empty for FOOD_ONLY.
type Booking struct {
	BookingID     ID              `json:"booking_id"`
	Type          BookingType     `json:"type"`
	Customer      Customer        `json:"customer"`
	VenueID       ID              `json:"venue_id,omitempty"`
	VenueName     string          `json:"venue_name,omitempty"`
	RoomID        ID              `json:"room_id,omitempty"`
	RoomName      string          `json:"room_name,omitempty"`
	RoomType      string          `json:"room_type,omitempty"`
	MovieTitle    string          `json:"movie_title,omitempty"`
	ShowtimeID    ID              `json:"showtime_id,omitempty"`
	ShowStart     *time.Time      `json:"show_start,omitempty"`
	Seats         []string        `json:"seats"`
	PricePerSeat  decimal.Decimal `json:"price_per_seat"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	Foods         []FoodLineItem  `json:"foods"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Active reports whether the booking is still usable at now.  Food orders
// never expire.
func (b Booking) Active(now time.Time) bool {
	if b.Type == BookingFoodOnly {
		return true
	}
	return b.ShowStart != nil && b.ShowStart.After(now)
}
