package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	bordereau "virement-backoffice/internal/bordereau/domain"
)

// Repository reads claims batches and records their closure. The claims
// module owns the table; this adapter touches only the columns the transfer
// engine needs.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID fetches a bordereau.
func (r *Repository) GetByID(ctx context.Context, id string) (*bordereau.Bordereau, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("bordereau repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, client_id, reference, status, closed_at
FROM bordereaux
WHERE id = $1
LIMIT 1`, id)

	var item bordereau.Bordereau
	var closedAt sql.NullTime
	err := row.Scan(&item.ID, &item.ClientID, &item.Reference, &item.Status, &closedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if closedAt.Valid {
		item.ClosedAt = closedAt.Time.UTC()
	}
	return &item, nil
}

// MarkClosed records closure once an order reached EXECUTE. One-way
// notification: closing an already closed bordereau is a no-op.
func (r *Repository) MarkClosed(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("bordereau repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE bordereaux
SET status = $1, closed_at = $2
WHERE id = $3 AND status <> $1`, bordereau.StatusClosed, at, id)
	if err != nil {
		return err
	}
	if _, err := result.RowsAffected(); err != nil {
		return err
	}
	return nil
}
