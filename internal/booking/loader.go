package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrSuperseded is returned by Load when a newer load for the same
// principal started before this one finished.  Its result is stale and
// has been discarded.
var ErrSuperseded = errors.New("booking load superseded")

// OrderSource lists every stored order.
type OrderSource interface {
	ListRawOrders(ctx context.Context) ([]model.RawOrder, error)
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Loader produces the booking list a principal may see.  Admins see every
// venue; managers are scoped to the venues returned by Ownership.  A new
// Load for a principal cancels the previous one still running.
type Loader struct {
	Orders    OrderSource
	Ownership OwnershipSource
	Log       *zap.Logger

	mu      sync.Mutex
	gen     uint64
	running map[model.ID]inflight
	stale   map[uint64]bool
}

// NewLoader constructs a Loader and panics if a dependency is missing.
func NewLoader(orders OrderSource, ownership OwnershipSource, log *zap.Logger) *Loader {
	if orders == nil || ownership == nil {
		panic("nil dependency passed to NewLoader")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{Orders: orders, Ownership: ownership, Log: log, running: map[model.ID]inflight{}, stale: map[uint64]bool{}}
}

// Load fetches, aggregates and scopes the bookings visible to p.
func (l *Loader) Load(ctx context.Context, p model.Principal) ([]model.Booking, error) {
	ctx, gen := l.start(ctx, p.UserID)
	defer l.finish(p.UserID, gen)

	raw, err := l.Orders.ListRawOrders(ctx)
	if err != nil {
		if l.superseded(ctx) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	bookings := Aggregate(l.Log, raw)
	if l.superseded(ctx) {
		return nil, ErrSuperseded
	}
	if p.IsAdmin() {
		return bookings, nil
	}

	owned, err := l.Ownership.OwnedVenueIDs(ctx, p)
	if err != nil {
		if l.superseded(ctx) {
			return nil, ErrSuperseded
		}
		return nil, fmt.Errorf("owned venues: %w", err)
	}
	if l.superseded(ctx) {
		return nil, ErrSuperseded
	}
	return ScopeToVenues(l.Log.With(zap.String("user_id", p.UserID.String())), bookings, owned), nil
}

func (l *Loader) start(ctx context.Context, key model.ID) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.running[key]; ok {
		l.stale[prev.gen] = true
		prev.cancel()
	}
	l.gen++
	l.running[key] = inflight{gen: l.gen, cancel: cancel}
	return context.WithValue(ctx, genKey{}, l.gen), l.gen
}

func (l *Loader) finish(key model.ID, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.stale, gen)
	if cur, ok := l.running[key]; ok && cur.gen == gen {
		cur.cancel()
		delete(l.running, key)
	}
}

type genKey struct{}

// superseded reports whether the load behind ctx was replaced by a newer
// one for the same principal.
func (l *Loader) superseded(ctx context.Context) bool {
	gen, _ := ctx.Value(genKey{}).(uint64)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale[gen]
}
