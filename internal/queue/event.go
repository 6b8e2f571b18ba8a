// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// Queue names.  Each event type has its own durable queue and is
// published on the default exchange with the queue name as routing key.
const (
	BannerReorderedQueue = "banner.reordered"
	CheckInIssuedQueue   = "checkin.issued"
)

// BannerRank is one persisted display-order change.
type BannerRank struct {
	ID    string `json:"id"`
	Order int    `json:"display_order"`
}

// BannerReorderedEvent is published after a drag-and-drop reorder has
// been written.  Failed counts updates that could not be persisted.
type BannerReorderedEvent struct {
	ActorID   string       `json:"actor_id"`
	Filter    string       `json:"filter"`
	DraggedID string       `json:"dragged_id"`
	TargetID  string       `json:"target_id"`
	Updated   []BannerRank `json:"updated"`
	Failed    int          `json:"failed"`
	At        string       `json:"at"`
}

// CheckInIssuedEvent is published when staff render the check-in codes
// of an order.
type CheckInIssuedEvent struct {
	OrderID    string   `json:"order_id"`
	BookingIDs []string `json:"booking_ids"`
	VenueIDs   []string `json:"venue_ids"`
	IssuedBy   string   `json:"issued_by"`
	Fallback   bool     `json:"fallback"`
	IssuedAt   string   `json:"issued_at"`
}
