package playlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

const itemColumns = `id, asset_id, media_id, quote_id, start_date::text, end_date::text,
	start_time, end_time, days_of_week, priority, created_at`

// Repository handles playlist item persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a playlist repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanItem(row pgx.Row) (*models.PlaylistItem, error) {
	var it models.PlaylistItem
	err := row.Scan(&it.ID, &it.AssetID, &it.MediaID, &it.QuoteID, &it.StartDate, &it.EndDate,
		&it.StartTime, &it.EndTime, &it.DaysOfWeek, &it.Priority, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repository) list(ctx context.Context, op, q string, args ...interface{}) ([]models.PlaylistItem, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	defer rows.Close()

	var list []models.PlaylistItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Persistence(op, err)
		}
		list = append(list, *it)
	}
	return list, apperr.Persistence(op, rows.Err())
}

// ListAll returns every booking, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]models.PlaylistItem, error) {
	return r.list(ctx, "list playlist", `SELECT `+itemColumns+` FROM playlist_items ORDER BY start_date, priority DESC, created_at`)
}

// ListByAsset returns the bookings of one panel.
func (r *Repository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]models.PlaylistItem, error) {
	return r.list(ctx, "list playlist by asset", `SELECT `+itemColumns+` FROM playlist_items
		WHERE asset_id = $1 ORDER BY start_date, priority DESC, created_at`, assetID)
}

// GetByID returns a booking by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.PlaylistItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM playlist_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get playlist item", err)
	}
	return it, nil
}

// Create inserts a booking and fills its ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, it *models.PlaylistItem) error {
	const q = `INSERT INTO playlist_items (asset_id, media_id, quote_id, start_date, end_date, start_time, end_time, days_of_week, priority)
		VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, it.AssetID, it.MediaID, it.QuoteID, it.StartDate, it.EndDate,
		it.StartTime, it.EndTime, it.DaysOfWeek, it.Priority).Scan(&it.ID, &it.CreatedAt)
	return apperr.Persistence("insert playlist item", err)
}

// Delete removes a booking. Deleting an unknown id returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM playlist_items WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete playlist item", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
