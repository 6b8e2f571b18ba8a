// Package booking rebuilds logical bookings from stored orders and narrows
// them to what a back-office user is allowed and asked to see.
package booking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// errMalformed marks a RawOrder that is missing fields needed to build a
// booking.  Such orders are skipped, never fatal.
var errMalformed = errors.New("malformed order")

// showKey groups the tickets of one order that belong to the same show.
type showKey struct {
	start int64
	venue model.ID
	room  model.ID
}

// Aggregate converts raw orders into bookings.  Tickets of one order are
// grouped per (show start, venue, room) in first-seen order, each group
// becoming one TICKETED booking.  An order with only food lines becomes a
// single FOOD_ONLY booking; an order with neither yields nothing.
// Malformed orders are logged and skipped.
//
// The food total of an order is added to every one of its ticket groups,
// so an order spanning two shows counts its food twice.
func Aggregate(log *zap.Logger, raw []model.RawOrder) []model.Booking {
	if log == nil {
		log = zap.NewNop()
	}
	out := make([]model.Booking, 0, len(raw))
	for i := range raw {
		bs, err := aggregateOne(&raw[i])
		if err != nil {
			log.Warn("skipping order",
				zap.String("order_id", raw[i].OrderID.String()),
				zap.Int("position", i),
				zap.Error(err))
			continue
		}
		out = append(out, bs...)
	}
	return out
}

func aggregateOne(o *model.RawOrder) ([]model.Booking, error) {
	if o.OrderID.IsZero() {
		return nil, fmt.Errorf("%w: missing order id", errMalformed)
	}
	foodTotal := decimal.Zero
	for _, f := range o.Foods {
		foodTotal = foodTotal.Add(f.LineTotal())
	}

	if len(o.Tickets) == 0 {
		if len(o.Foods) == 0 {
			return nil, nil
		}
		total := foodTotal
		if o.TotalAmount != nil {
			total = *o.TotalAmount
		}
		return []model.Booking{{
			BookingID:     o.OrderID,
			Type:          model.BookingFoodOnly,
			Customer:      o.Customer,
			Seats:         []string{},
			PricePerSeat:  decimal.Zero,
			TotalAmount:   total,
			PaymentMethod: o.PaymentMethod,
			Foods:         o.Foods,
			CreatedAt:     o.CreatedAt,
		}}, nil
	}

	for j, t := range o.Tickets {
		switch {
		case t.ShowStart == nil:
			return nil, fmt.Errorf("%w: ticket %d has no show start", errMalformed, j)
		case t.VenueID.IsZero():
			return nil, fmt.Errorf("%w: ticket %d has no venue", errMalformed, j)
		case t.RoomID.IsZero():
			return nil, fmt.Errorf("%w: ticket %d has no room", errMalformed, j)
		case t.SeatID == "":
			return nil, fmt.Errorf("%w: ticket %d has no seat", errMalformed, j)
		}
	}

	var keys []showKey
	groups := map[showKey][]model.TicketLineItem{}
	for _, t := range o.Tickets {
		k := showKey{start: t.ShowStart.Unix(), venue: t.VenueID, room: t.RoomID}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}

	out := make([]model.Booking, 0, len(keys))
	for _, k := range keys {
		tickets := groups[k]
		first := tickets[0]
		ticketSum := decimal.Zero
		for _, t := range tickets {
			ticketSum = ticketSum.Add(t.Price)
		}
		start := *first.ShowStart
		out = append(out, model.Booking{
			BookingID:     o.OrderID,
			Type:          model.BookingTicketed,
			Customer:      o.Customer,
			VenueID:       first.VenueID,
			VenueName:     first.VenueName,
			RoomID:        first.RoomID,
			RoomName:      first.RoomName,
			RoomType:      first.RoomType,
			MovieTitle:    first.MovieTitle,
			ShowtimeID:    first.ShowtimeID,
			ShowStart:     &start,
			Seats:         seatSet(tickets),
			PricePerSeat:  first.Price,
			TotalAmount:   ticketSum.Add(foodTotal),
			PaymentMethod: o.PaymentMethod,
			Foods:         o.Foods,
			CreatedAt:     o.CreatedAt,
		})
	}
	return out, nil
}

func seatSet(tickets []model.TicketLineItem) []string {
	seen := make(map[string]bool, len(tickets))
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		if !seen[t.SeatID] {
			seen[t.SeatID] = true
			out = append(out, t.SeatID)
		}
	}
	sort.Strings(out)
	return out
}
