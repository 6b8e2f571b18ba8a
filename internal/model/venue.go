package model

// Cinema is a venue managed by a single owner (the manager).
type Cinema struct {
	ID      ID     `json:"id"`
	OwnerID ID     `json:"owner_id"`
	Name    string `json:"name"`
}

// Hall is a screening room inside a cinema.  SeatRows and SeatCols are the
// dimensions fed to the seat map generator; RoomType is the internal
// format token (e.g. TYPE_2D, TYPE_IMAX).
type Hall struct {
	ID       ID     `json:"id"`
	CinemaID ID     `json:"cinema_id"`
	OwnerID  ID     `json:"owner_id"`
	Name     string `json:"name"`
	RoomType string `json:"room_type"`
	SeatRows int    `json:"seat_rows"`
	SeatCols int    `json:"seat_cols"`
	IsActive bool   `json:"is_active"`
}
