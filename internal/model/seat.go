package model

// SeatClass is the commercial category of a seat.  It is persisted as
// seats.seat_type.
type SeatClass string

const (
	SeatStandard SeatClass = "STANDARD"
	SeatPremium  SeatClass = "PREMIUM"
	SeatDouble   SeatClass = "DOUBLE"
)

// Seat describes one generated seat of a room layout.
//
// Fields:
//
//	Identifier – row label followed by the 1-based column, e.g. "C7".
//	Row        – row label (A, B, …, Z, AA, AB, …).
//	Column     – 1-based column number; walkway columns are never used.
//	Class      – STANDARD, PREMIUM or DOUBLE.
//	Enabled    – whether the seat can be sold.
type Seat struct {
	Identifier string    `json:"id"`
	Row        string    `json:"row"`
	Column     int       `json:"column"`
	Class      SeatClass `json:"class"`
	Enabled    bool      `json:"enabled"`
}

// RoomLayout is the seat map of a room.  Seats are ordered row by row and,
// within a row, by column.  Walkways lists the empty aisle columns.
type RoomLayout struct {
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Walkways []int  `json:"walkways"`
	Seats    []Seat `json:"seats"`
}

// LayoutRow is one rendered row of a layout.  Cells has one entry per
// column; walkway columns hold nil.
type LayoutRow struct {
	Label string  `json:"label"`
	Cells []*Seat `json:"cells"`
}

// Grid groups the layout seats by row for rendering, keeping walkway gaps
// as nil cells so that clients can draw aisles without recomputing them.
func (l RoomLayout) Grid() []LayoutRow {
	if l.Columns <= 0 {
		return nil
	}
	var out []LayoutRow
	idx := map[string]int{}
	for i := range l.Seats {
		s := &l.Seats[i]
		pos, ok := idx[s.Row]
		if !ok {
			pos = len(out)
			idx[s.Row] = pos
			out = append(out, LayoutRow{Label: s.Row, Cells: make([]*Seat, l.Columns)})
		}
		if s.Column >= 1 && s.Column <= l.Columns {
			out[pos].Cells[s.Column-1] = s
		}
	}
	return out
}
