package quotes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dooh-ops/backend/internal/apperr"
	"github.com/dooh-ops/backend/internal/models"
)

// Repository persists campaigns and their append-only media history. It implements
// mediaval.HistoryStore.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a quote repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a campaign by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var q models.Quote
	err := r.pool.QueryRow(ctx, `SELECT id, name, client_name, media_status, created_at FROM quotes WHERE id = $1`, id).
		Scan(&q.ID, &q.Name, &q.ClientName, &q.MediaStatus, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get quote", err)
	}
	return &q, nil
}

// ListByIDs returns the campaigns among ids that exist.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Quote, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, client_name, media_status, created_at FROM quotes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, apperr.Persistence("list quotes", err)
	}
	defer rows.Close()

	var list []models.Quote
	for rows.Next() {
		var q models.Quote
		if err := rows.Scan(&q.ID, &q.Name, &q.ClientName, &q.MediaStatus, &q.CreatedAt); err != nil {
			return nil, apperr.Persistence("list quotes", err)
		}
		list = append(list, q)
	}
	return list, apperr.Persistence("list quotes", rows.Err())
}

// CurrentStatus returns the campaign's media status.
func (r *Repository) CurrentStatus(ctx context.Context, quoteID uuid.UUID) (models.MediaStatus, error) {
	var status models.MediaStatus
	err := r.pool.QueryRow(ctx, `SELECT media_status FROM quotes WHERE id = $1`, quoteID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", apperr.Persistence("read media status", err)
	}
	return status, nil
}

// Append inserts one history row and, when the attempt was accepted, moves the campaign to
// entry.Status. Both happen in one transaction, so concurrent appends never lose entries.
func (r *Repository) Append(ctx context.Context, entry *models.MediaHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Persistence("begin media history", err)
	}
	defer tx.Rollback(ctx)

	const insert = `INSERT INTO quote_media_history
		(id, quote_id, recorded_at, status, attempted_status, accepted, recorded_by, note, validation_result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.Exec(ctx, insert, entry.ID, entry.QuoteID, entry.Date, string(entry.Status),
		string(entry.AttemptedStatus), entry.Accepted, entry.User, entry.Note, entry.ValidationResult); err != nil {
		return apperr.Persistence("insert media history", err)
	}
	if entry.Accepted {
		tag, err := tx.Exec(ctx, `UPDATE quotes SET media_status = $2 WHERE id = $1`, entry.QuoteID, string(entry.Status))
		if err != nil {
			return apperr.Persistence("update media status", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.ErrNotFound
		}
	}
	return apperr.Persistence("commit media history", tx.Commit(ctx))
}

// History returns the campaign's media history in insertion order.
func (r *Repository) History(ctx context.Context, quoteID uuid.UUID) ([]models.MediaHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, quote_id, recorded_at, status, attempted_status, accepted, recorded_by, note, validation_result
		FROM quote_media_history WHERE quote_id = $1 ORDER BY seq`, quoteID)
	if err != nil {
		return nil, apperr.Persistence("list media history", err)
	}
	defer rows.Close()

	list := []models.MediaHistoryEntry{}
	for rows.Next() {
		var e models.MediaHistoryEntry
		if err := rows.Scan(&e.ID, &e.QuoteID, &e.Date, &e.Status, &e.AttemptedStatus, &e.Accepted, &e.User, &e.Note, &e.ValidationResult); err != nil {
			return nil, apperr.Persistence("list media history", err)
		}
		list = append(list, e)
	}
	return list, apperr.Persistence("list media history", rows.Err())
}
