package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrBannerNotFound is returned when a banner lookup or update matches no row.
var ErrBannerNotFound = errors.New("banner not found")

// BannerRepo persists storefront banners and their display order.
type BannerRepo struct {
	db *sql.DB
}

// NewBannerRepo constructs a BannerRepo with the given DB handle.
func NewBannerRepo(db *sql.DB) *BannerRepo {
	return &BannerRepo{db: db}
}

const bannerColumns = `id, title, image_url, link_url, display_order, is_active, created_at`

func scanBanner(s rowScanner) (model.Banner, error) {
	var (
		b    model.Banner
		id   uint64
		link sql.NullString
	)
	if err := s.Scan(&id, &b.Title, &b.ImageURL, &link, &b.DisplayOrder, &b.Active, &b.CreatedAt); err != nil {
		return b, err
	}
	b.ID = model.MustID(id)
	b.LinkURL = link.String
	return b, nil
}

// List returns banners sorted by display order then id.  When activeOnly
// is set inactive banners are left out.
func (r *BannerRepo) List(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	q := `SELECT ` + bannerColumns + ` FROM banners`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY display_order, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one banner.
func (r *BannerRepo) GetByID(ctx context.Context, id uint64) (model.Banner, error) {
	q := `SELECT ` + bannerColumns + ` FROM banners WHERE id = ?`
	b, err := scanBanner(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBannerNotFound
	}
	return b, err
}

// Create appends a banner after the current last one and returns it.
func (r *BannerRepo) Create(ctx context.Context, b *model.Banner) error {
	const q = `INSERT INTO banners (title, image_url, link_url, display_order, is_active)
	           SELECT ?, ?, ?, COALESCE(MAX(display_order) + 1, 0), ? FROM banners`
	res, err := r.db.ExecContext(ctx, q, b.Title, b.ImageURL, nullString(b.LinkURL), b.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = fresh
	return nil
}

// BannerPatch carries the optional fields of a banner edit.
type BannerPatch struct {
	Title   *string
	LinkURL *string
	Active  *bool
}

// Update applies the non-nil fields of p.
func (r *BannerRepo) Update(ctx context.Context, id uint64, p BannerPatch) error {
	var link any
	if p.LinkURL != nil {
		link = nullString(*p.LinkURL)
	}
	const q = `UPDATE banners
	           SET title = COALESCE(?, title),
	               link_url = IF(?, ?, link_url),
	               is_active = COALESCE(?, is_active),
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Title, p.LinkURL != nil, link, p.Active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBannerNotFound
	}
	return nil
}

// UpdateDisplayOrder writes a single display order.  It satisfies
// ordering.Store so reorders are persisted one row per call.
func (r *BannerRepo) UpdateDisplayOrder(ctx context.Context, id model.ID, order int) error {
	n, err := id.Uint64()
	if err != nil {
		return err
	}
	const q = `UPDATE banners SET display_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, order, n)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBannerNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
