package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	beneficiary "virement-backoffice/internal/beneficiary/domain"
)

// Repository persists beneficiaries.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByMatricule resolves a matricule scoped to a client.
func (r *Repository) FindByMatricule(ctx context.Context, clientID, matricule string) (*beneficiary.Beneficiary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("beneficiary repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, client_id, matricule, name, rib, contract_code, status, created_at, updated_at
FROM beneficiaries
WHERE client_id = $1 AND matricule = $2
LIMIT 1`, clientID, matricule)
	return scanBeneficiary(row)
}

// GetByID fetches a beneficiary.
func (r *Repository) GetByID(ctx context.Context, id string) (*beneficiary.Beneficiary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("beneficiary repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, client_id, matricule, name, rib, contract_code, status, created_at, updated_at
FROM beneficiaries
WHERE id = $1
LIMIT 1`, id)
	return scanBeneficiary(row)
}

// ListByClient lists all beneficiaries of a client.
func (r *Repository) ListByClient(ctx context.Context, clientID string) ([]beneficiary.Beneficiary, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("beneficiary repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, client_id, matricule, name, rib, contract_code, status, created_at, updated_at
FROM beneficiaries
WHERE client_id = $1
ORDER BY matricule ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []beneficiary.Beneficiary
	for rows.Next() {
		item, err := scanBeneficiary(rows)
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

// CreateBatch inserts a batch of beneficiaries in one transaction. The whole
// batch is rolled back when any matricule already exists for its client.
func (r *Repository) CreateBatch(ctx context.Context, items []beneficiary.Beneficiary) error {
	if r == nil || r.db == nil {
		return errors.New("beneficiary repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, item := range items {
		var exists bool
		err := tx.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM beneficiaries WHERE client_id = $1 AND matricule = $2)`,
			item.ClientID, item.Matricule).Scan(&exists)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if exists {
			_ = tx.Rollback()
			return beneficiary.ErrDuplicateMatricule
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO beneficiaries (id, client_id, matricule, name, rib, contract_code, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			item.ID, item.ClientID, item.Matricule, item.Name, item.RIB, item.ContractCode, item.Status, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SetStatus flips a beneficiary's status (soft activation/deactivation).
func (r *Repository) SetStatus(ctx context.Context, id, status string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("beneficiary repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE beneficiaries SET status = $1, updated_at = $2 WHERE id = $3`, status, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return beneficiary.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (*beneficiary.Beneficiary, error) {
	var item beneficiary.Beneficiary
	var contractCode sql.NullString
	err := row.Scan(
		&item.ID,
		&item.ClientID,
		&item.Matricule,
		&item.Name,
		&item.RIB,
		&contractCode,
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
	if contractCode.Valid {
		item.ContractCode = contractCode.String
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}
