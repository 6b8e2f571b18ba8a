package booking

import (
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// foodMarker is matched by free-text search against food-only bookings.
const foodMarker = "food"

// TypeFilter selects bookings by type.
type TypeFilter string

const (
	TypeAll      TypeFilter = "ALL"
	TypeTicketed TypeFilter = TypeFilter(model.BookingTicketed)
	TypeFoodOnly TypeFilter = TypeFilter(model.BookingFoodOnly)
)

// StatusFilter selects bookings by derived status.
type StatusFilter string

const (
	StatusAll     StatusFilter = "ALL"
	StatusActive  StatusFilter = "ACTIVE"
	StatusExpired StatusFilter = "EXPIRED"
)

// SortKey orders the filtered result.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortShowTime SortKey = "show_time"
	SortAmount   SortKey = "amount"
)

// Query is the list screen's search form.  Zero values mean "no filter".
// From and To are inclusive calendar days compared in the location of
// their own values.
type Query struct {
	Text   string
	Type   TypeFilter
	Status StatusFilter
	From   *time.Time
	To     *time.Time
	Sort   SortKey
}

// Search applies q to bookings and returns a new, sorted slice.  now
// decides whether a show is still active.
func Search(bookings []model.Booking, q Query, now time.Time) []model.Booking {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if text != "" && !matchesText(b, text) {
			continue
		}
		if q.Type != "" && q.Type != TypeAll && string(q.Type) != string(b.Type) {
			continue
		}
		switch q.Status {
		case StatusActive:
			if !b.Active(now) {
				continue
			}
		case StatusExpired:
			if b.Active(now) {
				continue
			}
		}
		if !inRange(b, q.From, q.To) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out, q.Sort)
	return out
}

func matchesText(b model.Booking, text string) bool {
	fields := []string{b.Customer.Name, b.Customer.Phone, b.MovieTitle, b.VenueName}
	if b.Type == model.BookingFoodOnly {
		fields = append(fields, foodMarker)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}

// referenceTime is the show start, or the order time for food orders.
func referenceTime(b model.Booking) time.Time {
	if b.ShowStart != nil {
		return *b.ShowStart
	}
	return b.CreatedAt
}

func inRange(b model.Booking, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	t := referenceTime(b)
	if from != nil {
		start := dayStart(*from)
		if t.Before(start) {
			return false
		}
	}
	if to != nil {
		end := dayStart(*to).AddDate(0, 0, 1)
		if !t.Before(end) {
			return false
		}
	}
	return true
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sortBookings(list []model.Booking, key SortKey) {
	sort.SliceStable(list, func(i, j int) bool {
		switch key {
		case SortShowTime:
			return referenceTime(list[i]).Before(referenceTime(list[j]))
		case SortAmount:
			return list[i].TotalAmount.GreaterThan(list[j].TotalAmount)
		default:
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
	})
}
