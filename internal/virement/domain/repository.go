package virement

import (
	"context"
	"time"
)

// OrderRepository persists transfer orders, their lines and history. Every
// mutation that changes a status writes its history entry in the same
// transaction; CAS methods return ErrConcurrentModification when the guarded
// status no longer matches.
type OrderRepository interface {
	// CreateOrder allocates the next year-scoped reference, inserts the
	// order, its lines and the CREATED history entry in one transaction.
	// Reference, Year and Seq are assigned on the passed order.
	CreateOrder(ctx context.Context, order *TransferOrder, lines []TransferLine, created TransferHistoryEntry) error

	GetByID(ctx context.Context, id string) (*TransferOrder, error)
	List(ctx context.Context, year int, executionStatus string) ([]TransferOrder, error)
	ListLines(ctx context.Context, orderID string) ([]TransferLine, error)
	ListHistory(ctx context.Context, orderID string) ([]TransferHistoryEntry, error)

	// CASValidation moves validation status prev→next, stamping the approver
	// and reason, guarded on the current validation status.
	CASValidation(ctx context.Context, orderID, prev, next, approverID, reason string, at time.Time, entry TransferHistoryEntry) error

	// CASExecution moves execution status prev→next, stamping motif and
	// execution timestamp, flipping rejected lines, guarded on the current
	// execution status.
	CASExecution(ctx context.Context, orderID, prev, next, motif string, executedAt time.Time, rejected []LineRejection, entry TransferHistoryEntry) error

	// CASRecovery records a recovery request (confirm=false) or confirmation
	// (confirm=true), guarded so a request happens once and a confirmation
	// only after a request.
	CASRecovery(ctx context.Context, orderID string, confirm bool, at time.Time, entry TransferHistoryEntry) error

	// ClaimFiles stores generated document paths, guarded on the order still
	// being NON_EXECUTED. Claiming the same paths again is a no-op.
	ClaimFiles(ctx context.Context, orderID, advicePath, bankPath string) error
}
