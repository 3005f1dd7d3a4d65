package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

const mediaColumns = `id, name, url, s3_key, type, duration, resolution, status, created_at`

// Repository handles creative library persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMedia(row pgx.Row) (*models.MediaAsset, error) {
	var m models.MediaAsset
	if err := row.Scan(&m.ID, &m.Name, &m.URL, &m.S3Key, &m.Type, &m.Duration, &m.Resolution, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns creatives, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *models.MediaFileStatus) ([]models.MediaAsset, error) {
	q := `SELECT ` + mediaColumns + ` FROM media_files`
	var args []interface{}
	if status != nil {
		q += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, apperr.Persistence("list media", err)
	}
	defer rows.Close()

	var list []models.MediaAsset
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, apperr.Persistence("list media", err)
		}
		list = append(list, *m)
	}
	return list, apperr.Persistence("list media", rows.Err())
}

// GetByID returns a creative by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	m, err := scanMedia(r.pool.QueryRow(ctx, `SELECT `+mediaColumns+` FROM media_files WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get media", err)
	}
	return m, nil
}

// Create inserts a creative. m.ID must already be set (it is part of the object key).
func (r *Repository) Create(ctx context.Context, m *models.MediaAsset) error {
	const q = `INSERT INTO media_files (id, name, url, s3_key, type, duration, resolution, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, q, m.ID, m.Name, m.URL, m.S3Key, string(m.Type), m.Duration, m.Resolution, string(m.Status)).
		Scan(&m.CreatedAt)
	return apperr.Persistence("insert media", err)
}

// UpdateStatus records a reviewer decision and returns the updated creative.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MediaFileStatus) (*models.MediaAsset, error) {
	m, err := scanMedia(r.pool.QueryRow(ctx,
		`UPDATE media_files SET status = $2 WHERE id = $1 RETURNING `+mediaColumns, id, string(status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("update media status", err)
	}
	return m, nil
}
