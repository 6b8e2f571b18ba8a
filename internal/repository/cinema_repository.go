// Package repository contains data access logic separated from HTTP handlers.
// This file defines cinema lookups.  A cinema is a venue managed by a
// single owner; the list of a manager's cinemas scopes the bookings the
// manager may see.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
	"fmt"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrCinemaNotFound is returned when a cinema cannot be found in the DB.
var ErrCinemaNotFound = errors.New("cinema not found")

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

// GetByIDAndOwner fetches a cinema by id but only if it belongs to the
// specified owner.  If the cinema doesn't exist or is owned by someone
// else, ErrCinemaNotFound is returned.
func (r *CinemaRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Cinema, error) {
	const q = "SELECT id, owner_id, name FROM cinemas WHERE id = ? AND owner_id = ?"
	var (
		cid, oid uint64
		c        model.Cinema
	)
	if err := r.db.QueryRowContext(ctx, q, id, ownerID).Scan(&cid, &oid, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	c.ID, c.OwnerID = model.MustID(cid), model.MustID(oid)
	return &c, nil
}

// ListIDsByOwner returns the ids of all cinemas of an owner ordered by id.
// An owner without cinemas gets an empty, non-nil slice.
func (r *CinemaRepo) ListIDsByOwner(ctx context.Context, ownerID uint64) ([]model.ID, error) {
	const q = `SELECT id FROM cinemas WHERE owner_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ID{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, model.MustID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// OwnedVenueIDs lists the cinemas managed by p.  It lets CinemaRepo serve
// as the ownership source when no remote directory is configured.
func (r *CinemaRepo) OwnedVenueIDs(ctx context.Context, p model.Principal) ([]model.ID, error) {
	ownerID, err := p.UserID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("owner id %q: %w", p.UserID, err)
	}
	return r.ListIDsByOwner(ctx, ownerID)
}
