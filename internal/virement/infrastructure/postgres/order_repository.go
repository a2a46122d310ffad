package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"virement-backoffice/internal/amount"
	virement "virement-backoffice/internal/virement/domain"
)

// OrderRepository persists transfer orders in Postgres. Status changes use
// compare-and-swap updates guarded on the previous status; the matching
// history entry always lands in the same transaction.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository constructs a repository.
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateOrder allocates the next year-scoped sequence number and inserts the
// order, its lines and the CREATED history entry in one transaction. The
// sequence row is locked by the upsert, so references stay gap-free even
// under concurrent builders.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *virement.TransferOrder, lines []virement.TransferLine, created virement.TransferHistoryEntry) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	year := order.CreatedAt.UTC().Year()
	var seq int
	err = tx.QueryRowContext(ctx, `
INSERT INTO transfer_order_sequences (year, last_seq)
VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET last_seq = transfer_order_sequences.last_seq + 1
RETURNING last_seq`, year).Scan(&seq)
	if err != nil {
		return fmt.Errorf("order repo: sequence: %w", err)
	}
	order.Year = year
	order.Seq = seq
	order.Reference = virement.BuildReference(year, seq)

	_, err = tx.ExecContext(ctx, `
INSERT INTO transfer_orders (
	id, reference, year, seq, client_id, payer_profile_id,
	bordereau_id, bordereau_ref, preparer_id,
	validation_status, execution_status,
	total_amount, beneficiary_count, value_date, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		order.ID, order.Reference, order.Year, order.Seq, order.ClientID, order.PayerProfileID,
		nullString(order.BordereauID), nullString(order.BordereauRef), order.PreparerID,
		order.ValidationStatus, order.ExecutionStatus,
		int64(order.TotalAmount), order.BeneficiaryCount, order.ValueDate.UTC(), order.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("order repo: insert order: %w", err)
	}

	for _, line := range lines {
		_, err = tx.ExecContext(ctx, `
INSERT INTO transfer_lines (
	id, order_id, beneficiary_id, matricule, beneficiary_name, rib, amount, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			line.ID, order.ID, line.BeneficiaryID, line.Matricule, line.BeneficiaryName, line.RIB,
			int64(line.Amount), line.Status)
		if err != nil {
			return fmt.Errorf("order repo: insert line: %w", err)
		}
	}

	if err = insertHistory(ctx, tx, created); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches an order; nil when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*virement.TransferOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1 LIMIT 1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// List returns orders newest first, optionally filtered by year and
// execution status.
func (r *OrderRepository) List(ctx context.Context, year int, executionStatus string) ([]virement.TransferOrder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	query := selectOrder + ` WHERE 1 = 1`
	args := make([]any, 0, 2)
	if year > 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if executionStatus != "" {
		args = append(args, executionStatus)
		query += fmt.Sprintf(" AND execution_status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC, reference DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []virement.TransferOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// ListLines returns an order's lines in insertion order.
func (r *OrderRepository) ListLines(ctx context.Context, orderID string) ([]virement.TransferLine, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, beneficiary_id, matricule, beneficiary_name, rib, amount, status, reject_reason
FROM transfer_lines
WHERE order_id = $1
ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []virement.TransferLine
	for rows.Next() {
		var line virement.TransferLine
		var minor int64
		var rejectReason sql.NullString
		err := rows.Scan(&line.ID, &line.OrderID, &line.BeneficiaryID, &line.Matricule,
			&line.BeneficiaryName, &line.RIB, &minor, &line.Status, &rejectReason)
		if err != nil {
			return nil, err
		}
		line.Amount = amount.Amount(minor)
		line.RejectReason = rejectReason.String
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListHistory returns an order's history oldest first.
func (r *OrderRepository) ListHistory(ctx context.Context, orderID string) ([]virement.TransferHistoryEntry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("order repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, order_id, actor_id, action, previous_status, new_status, comment, created_at
FROM transfer_history
WHERE order_id = $1
ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []virement.TransferHistoryEntry
	for rows.Next() {
		var entry virement.TransferHistoryEntry
		var previous, comment sql.NullString
		err := rows.Scan(&entry.ID, &entry.OrderID, &entry.ActorID, &entry.Action,
			&previous, &entry.NewStatus, &comment, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entry.PreviousStatus = previous.String
		entry.Comment = comment.String
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CASValidation decides the validation gate, guarded on the previous status.
func (r *OrderRepository) CASValidation(ctx context.Context, orderID, prev, next, approverID, reason string, at time.Time, entry virement.TransferHistoryEntry) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE transfer_orders
SET validation_status = $1, approver_id = $2, validation_reason = $3, validated_at = $4
WHERE id = $5 AND validation_status = $6`,
		next, approverID, nullString(reason), at.UTC(), orderID, prev)
	if err != nil {
		return err
	}
	if err = requireOneRow(result); err != nil {
		return err
	}
	if err = insertHistory(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// CASExecution moves the execution status, guarded on the previous status,
// flipping rejected lines for partial executions.
func (r *OrderRepository) CASExecution(ctx context.Context, orderID, prev, next, motif string, executedAt time.Time, rejected []virement.LineRejection, entry virement.TransferHistoryEntry) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
UPDATE transfer_orders
SET execution_status = $1, motif = $2, executed_at = $3
WHERE id = $4 AND execution_status = $5`,
		next, nullString(motif), nullTime(executedAt), orderID, prev)
	if err != nil {
		return err
	}
	if err = requireOneRow(result); err != nil {
		return err
	}
	for _, rejection := range rejected {
		var lineResult sql.Result
		lineResult, err = tx.ExecContext(ctx, `
UPDATE transfer_lines
SET status = $1, reject_reason = $2
WHERE id = $3 AND order_id = $4`,
			virement.LineRejected, rejection.Reason, rejection.LineID, orderID)
		if err != nil {
			return err
		}
		if err = requireOneRow(lineResult); err != nil {
			return err
		}
	}
	if err = insertHistory(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// CASRecovery records a recovery request or confirmation. The guards make
// the pair strictly ordered: request once, confirm once, confirm only after
// request.
func (r *OrderRepository) CASRecovery(ctx context.Context, orderID string, confirm bool, at time.Time, entry virement.TransferHistoryEntry) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var result sql.Result
	if confirm {
		result, err = tx.ExecContext(ctx, `
UPDATE transfer_orders
SET recovery_confirmed = TRUE, recovery_confirmed_at = $1
WHERE id = $2 AND recovery_requested = TRUE AND recovery_confirmed = FALSE`,
			at.UTC(), orderID)
	} else {
		result, err = tx.ExecContext(ctx, `
UPDATE transfer_orders
SET recovery_requested = TRUE, recovery_requested_at = $1
WHERE id = $2 AND recovery_requested = FALSE`,
			at.UTC(), orderID)
	}
	if err != nil {
		return err
	}
	if err = requireOneRow(result); err != nil {
		return err
	}
	if err = insertHistory(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// ClaimFiles stores generated document paths while the order is still
// NON_EXECUTED.
func (r *OrderRepository) ClaimFiles(ctx context.Context, orderID, advicePath, bankPath string) error {
	if r == nil || r.db == nil {
		return errors.New("order repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE transfer_orders
SET advice_doc_path = $1, bank_file_path = $2
WHERE id = $3 AND execution_status = $4`,
		advicePath, bankPath, orderID, virement.ExecutionNotExecuted)
	if err != nil {
		return err
	}
	return requireOneRow(result)
}

const selectOrder = `
SELECT id, reference, year, seq, client_id, payer_profile_id,
	bordereau_id, bordereau_ref, preparer_id, approver_id,
	validation_status, validation_reason, execution_status, motif,
	total_amount, beneficiary_count, value_date,
	advice_doc_path, bank_file_path,
	created_at, validated_at, executed_at,
	recovery_requested, recovery_requested_at,
	recovery_confirmed, recovery_confirmed_at
FROM transfer_orders`

func scanOrder(row rowScanner) (*virement.TransferOrder, error) {
	var order virement.TransferOrder
	var total int64
	var bordereauID, bordereauRef, approverID, validationReason, motif sql.NullString
	var advicePath, bankPath sql.NullString
	var validatedAt, executedAt, recoveryRequestedAt, recoveryConfirmedAt sql.NullTime

	err := row.Scan(&order.ID, &order.Reference, &order.Year, &order.Seq, &order.ClientID, &order.PayerProfileID,
		&bordereauID, &bordereauRef, &order.PreparerID, &approverID,
		&order.ValidationStatus, &validationReason, &order.ExecutionStatus, &motif,
		&total, &order.BeneficiaryCount, &order.ValueDate,
		&advicePath, &bankPath,
		&order.CreatedAt, &validatedAt, &executedAt,
		&order.RecoveryRequested, &recoveryRequestedAt,
		&order.RecoveryConfirmed, &recoveryConfirmedAt)
	if err != nil {
		return nil, err
	}

	order.TotalAmount = amount.Amount(total)
	order.BordereauID = bordereauID.String
	order.BordereauRef = bordereauRef.String
	order.ApproverID = approverID.String
	order.ValidationReason = validationReason.String
	order.Motif = motif.String
	order.AdviceDocPath = advicePath.String
	order.BankFilePath = bankPath.String
	order.ValueDate = order.ValueDate.UTC()
	order.CreatedAt = order.CreatedAt.UTC()
	if validatedAt.Valid {
		order.ValidatedAt = validatedAt.Time.UTC()
	}
	if executedAt.Valid {
		order.ExecutedAt = executedAt.Time.UTC()
	}
	if recoveryRequestedAt.Valid {
		order.RecoveryRequestedAt = recoveryRequestedAt.Time.UTC()
	}
	if recoveryConfirmedAt.Valid {
		order.RecoveryConfirmedAt = recoveryConfirmedAt.Time.UTC()
	}
	return &order, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry virement.TransferHistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO transfer_history (
	id, order_id, actor_id, action, previous_status, new_status, comment, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OrderID, entry.ActorID, entry.Action,
		nullString(entry.PreviousStatus), entry.NewStatus, nullString(entry.Comment), entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("order repo: insert history: %w", err)
	}
	return nil
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return virement.ErrConcurrentModification
	}
	return nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value time.Time) sql.NullTime {
	return sql.NullTime{Time: value.UTC(), Valid: !value.IsZero()}
}
