package ordering

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// Store persists one display-order value.  Each call succeeds or fails
// independently of the others.
type Store interface {
	UpdateDisplayOrder(ctx context.Context, id model.ID, order int) error
}

// Result summarizes an Apply call.
type Result struct {
	Applied []Update
	Failed  []Update
}

// Apply issues every update concurrently and waits until all of them have
// settled.  A failing update does not cancel or roll back the others; the
// returned error combines all failures.  Callers should re-read the
// collection afterwards whatever the outcome.
func Apply(ctx context.Context, store Store, updates []Update) (Result, error) {
	var (
		mu   sync.Mutex
		res  Result
		errs error
		g    errgroup.Group
	)
	for _, u := range updates {
		u := u
		g.Go(func() error {
			err := store.UpdateDisplayOrder(ctx, u.ID, u.Order)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed = append(res.Failed, u)
				errs = multierr.Append(errs, fmt.Errorf("update %s to %d: %w", u.ID, u.Order, err))
				return nil
			}
			res.Applied = append(res.Applied, u)
			return nil
		})
	}
	_ = g.Wait()
	return res, errs
}
