package assets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

const assetColumns = `id, name, resolution, capacity_quota, city, district, created_at`

// Repository reads the panel inventory. Panels are maintained elsewhere.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an asset repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	if err := row.Scan(&a.ID, &a.Name, &a.Resolution, &a.CapacityQuota, &a.City, &a.District, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all panels ordered by city, district and name.
func (r *Repository) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY city, district, name`)
	if err != nil {
		return nil, apperr.Persistence("list assets", err)
	}
	defer rows.Close()

	var list []models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, apperr.Persistence("list assets", err)
		}
		list = append(list, *a)
	}
	return list, apperr.Persistence("list assets", rows.Err())
}

// GetByID returns a panel by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get asset", err)
	}
	return a, nil
}
