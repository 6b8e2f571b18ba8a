// Package checkin builds the canonical payload printed as a QR code on a
// ticket or food receipt and scanned by venue staff at the door.  Field
// names and order are a contract with the scanning app.
package checkin

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// FoodOrderMarker is the type value of food-only payloads.
const FoodOrderMarker = "FOOD_ORDER"

const (
	dateLayout  = "02/01/2006"
	timeLayout  = "15:04"
	stampLayout = "2006-01-02T15:04:05"
)

// roomTypePrefixes are internal tokens stripped from room types before
// they are shown as a format ("TYPE_2D" -> "2D").
var roomTypePrefixes = []string{"TYPE_", "FORMAT_"}

// TicketPayload is the payload of a ticketed booking.  Do not reorder the
// fields: the scanner compares serialized payloads byte for byte.
type TicketPayload struct {
	BookingID string   `json:"bookingId"`
	OrderID   string   `json:"orderId"`
	Movie     string   `json:"movie"`
	Cinema    string   `json:"cinema"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Seats     []string `json:"seats"`
	Format    string   `json:"format"`
}

// FoodItem is one line of a food-only payload.
type FoodItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
}

// FoodPayload is the payload of a food-only order.  Field order is fixed.
type FoodPayload struct {
	OrderID     string      `json:"orderId"`
	Type        string      `json:"type"`
	OrderDate   string      `json:"orderDate"`
	TotalAmount json.Number `json:"totalAmount"`
	FoodItems   []FoodItem  `json:"foodItems"`
}

// Result is an encoded payload.  Fallback is set when the booking id was
// derived from the clock because the booking lacks a showtime; such ids
// cannot be regenerated later from stored data.
type Result struct {
	Payload  any
	Fallback bool
}

// JSON serializes the payload.
func (r Result) JSON() ([]byte, error) {
	return json.Marshal(r.Payload)
}

// Encoder formats dates in Location and reads the clock through Now.
type Encoder struct {
	Location *time.Location
	Now      func() time.Time
}

// NewEncoder returns an Encoder for loc using the wall clock.
func NewEncoder(loc *time.Location) *Encoder {
	if loc == nil {
		loc = time.Local
	}
	return &Encoder{Location: loc, Now: time.Now}
}

// Encode builds the payload of b.
func (e *Encoder) Encode(b model.Booking) (Result, error) {
	if b.BookingID.IsZero() {
		return Result{}, errors.New("booking has no order id")
	}
	switch b.Type {
	case model.BookingTicketed:
		return e.ticket(b), nil
	case model.BookingFoodOnly:
		return Result{Payload: e.food(b)}, nil
	}
	return Result{}, fmt.Errorf("unknown booking type %q", b.Type)
}

func (e *Encoder) ticket(b model.Booking) Result {
	seats := append([]string(nil), b.Seats...)
	sort.Strings(seats)
	if seats == nil {
		seats = []string{}
	}

	p := TicketPayload{
		OrderID: b.BookingID.String(),
		Movie:   b.MovieTitle,
		Cinema:  b.VenueName,
		Seats:   seats,
		Format:  Format(b.RoomType),
	}
	fallback := b.ShowtimeID.IsZero() || b.ShowStart == nil
	if fallback {
		p.BookingID = fmt.Sprintf("%s-%d", b.BookingID, e.now().UnixMilli())
	} else {
		start := b.ShowStart.In(e.loc())
		p.BookingID = fmt.Sprintf("%s-%s-%s", b.BookingID, b.ShowtimeID, start.Format(stampLayout))
		p.Date = start.Format(dateLayout)
		p.Time = start.Format(timeLayout)
	}
	return Result{Payload: p, Fallback: fallback}
}

func (e *Encoder) food(b model.Booking) FoodPayload {
	items := make([]FoodItem, 0, len(b.Foods))
	for _, f := range b.Foods {
		items = append(items, FoodItem{
			ID:       f.ComboID.String(),
			Name:     f.Name,
			Quantity: f.Quantity,
			Price:    json.Number(f.Price.String()),
		})
	}
	p := FoodPayload{
		OrderID:     b.BookingID.String(),
		Type:        FoodOrderMarker,
		TotalAmount: json.Number(b.TotalAmount.String()),
		FoodItems:   items,
	}
	if !b.CreatedAt.IsZero() {
		p.OrderDate = b.CreatedAt.In(e.loc()).Format(dateLayout)
	}
	return p
}

// Format strips internal prefixes from a room type.
func Format(roomType string) string {
	s := strings.TrimSpace(roomType)
	for _, p := range roomTypePrefixes {
		if len(s) > len(p) && strings.EqualFold(s[:len(p)], p) {
			return s[len(p):]
		}
	}
	return s
}

func (e *Encoder) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

func (e *Encoder) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}
