package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// OwnershipSource lists the venues managed by a principal.
type OwnershipSource interface {
	OwnedVenueIDs(ctx context.Context, p model.Principal) ([]model.ID, error)
}

// ScopeToVenues keeps the bookings held at one of the owned venues.  An
// empty owned list lets everything through and logs a warning.  The
// warning's "owned" field tells a nil list ("unresolved", nothing was
// looked up) from a non-nil empty one ("none", the source answered that
// the caller manages no venue).
func ScopeToVenues(log *zap.Logger, bookings []model.Booking, owned []model.ID) []model.Booking {
	if len(owned) == 0 {
		if log != nil {
			reason := "unresolved"
			if owned != nil {
				reason = "none"
			}
			log.Warn("no owned venues supplied, returning unscoped bookings",
				zap.String("owned", reason),
				zap.Int("bookings", len(bookings)))
		}
		return bookings
	}
	set := make(map[model.ID]struct{}, len(owned))
	for _, id := range owned {
		set[id] = struct{}{}
	}
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if _, ok := set[b.VenueID]; ok {
			out = append(out, b)
		}
	}
	return out
}
