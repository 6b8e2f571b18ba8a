// Package seatmap generates the seat grid of a screening room.  Every
// fifth column is an aisle, wide rooms get a centre aisle, the front rows
// are premium and the back rows of wide rooms may hold double seats.
package seatmap

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

const (
	walkwayEvery     = 5    // every 5th column (1-based) is an aisle
	centreAisleAbove = 10   // rooms wider than this get a centre aisle
	premiumShare     = 0.15 // share of front rows sold as premium
	doubleRows       = 2    // back rows eligible for double seats
	doubleAbove      = 12   // only rooms wider than this get double seats
	doubleChance     = 0.2  // per-seat probability of a double seat
)

// Rand is the random source used to place double seats.  *rand.Rand
// satisfies it, so tests can pass rand.New(rand.NewSource(seed)).
type Rand interface {
	Float64() float64
}

// Generate builds the layout of a rows x cols room.  Non-positive
// dimensions yield an empty layout.  When rnd is nil a time-seeded source
// is used and double seat placement differs between calls.
func Generate(rows, cols int, rnd Rand) model.RoomLayout {
	layout := model.RoomLayout{Rows: rows, Columns: cols, Walkways: []int{}, Seats: []model.Seat{}}
	if rows <= 0 || cols <= 0 {
		return layout
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	walk := Walkways(cols)
	layout.Walkways = WalkwayColumns(cols)

	premiumRows := int(float64(rows) * premiumShare)
	layout.Seats = make([]model.Seat, 0, rows*(cols-len(layout.Walkways)))
	for r := 0; r < rows; r++ {
		label := RowLabel(r)
		for c := 1; c <= cols; c++ {
			if walk[c] {
				continue
			}
			layout.Seats = append(layout.Seats, model.Seat{
				Identifier: label + strconv.Itoa(c),
				Row:        label,
				Column:     c,
				Class:      classify(r, rows, cols, premiumRows, rnd),
				Enabled:    true,
			})
		}
	}
	return layout
}

// Walkways returns the set of aisle columns of a room with cols columns.
func Walkways(cols int) map[int]bool {
	out := map[int]bool{}
	for c := walkwayEvery; c <= cols; c += walkwayEvery {
		out[c] = true
	}
	if cols > centreAisleAbove {
		out[cols/2] = true
		out[cols/2+1] = true
	}
	return out
}

// WalkwayColumns lists the aisle columns of a room in ascending order.
func WalkwayColumns(cols int) []int {
	walk := Walkways(cols)
	out := []int{}
	for c := 1; c <= cols; c++ {
		if walk[c] {
			out = append(out, c)
		}
	}
	return out
}

func classify(row, rows, cols, premiumRows int, rnd Rand) model.SeatClass {
	switch {
	case row < premiumRows:
		return model.SeatPremium
	case row >= rows-doubleRows && cols > doubleAbove:
		if rnd.Float64() < doubleChance {
			return model.SeatDouble
		}
		return model.SeatStandard
	default:
		return model.SeatStandard
	}
}
