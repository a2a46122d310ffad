package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	payer "virement-backoffice/internal/payer/domain"
)

// Repository persists payer profiles. There is deliberately no delete
// statement here: profiles referenced by orders are only ever deactivated.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID fetches a profile.
func (r *Repository) GetByID(ctx context.Context, id string) (*payer.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payer repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, rib, bank_name, branch, layout_variant, status, created_at, updated_at
FROM payer_profiles
WHERE id = $1
LIMIT 1`, id)
	return scanProfile(row)
}

// ListActive lists profiles that may issue new orders.
func (r *Repository) ListActive(ctx context.Context) ([]payer.Profile, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payer repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, rib, bank_name, branch, layout_variant, status, created_at, updated_at
FROM payer_profiles
WHERE status = $1
ORDER BY name ASC`, payer.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []payer.Profile
	for rows.Next() {
		item, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		if item != nil {
			result = append(result, *item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a profile.
func (r *Repository) Create(ctx context.Context, profile *payer.Profile) error {
	if r == nil || r.db == nil {
		return errors.New("payer repo: nil db")
	}
	if profile == nil {
		return errors.New("payer repo: nil profile")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payer_profiles (id, name, rib, bank_name, branch, layout_variant, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		profile.ID, profile.Name, profile.RIB, profile.BankName, profile.Branch, profile.LayoutVariant, profile.Status, profile.CreatedAt, profile.UpdatedAt)
	return err
}

// Deactivate retires a profile from new orders.
func (r *Repository) Deactivate(ctx context.Context, id string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("payer repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE payer_profiles SET status = $1, updated_at = $2 WHERE id = $3`, payer.StatusInactive, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payer.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*payer.Profile, error) {
	var item payer.Profile
	var branch sql.NullString
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.RIB,
		&item.BankName,
		&branch,
		&item.LayoutVariant,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if branch.Valid {
		item.Branch = branch.String
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
