// Package memory holds an in-memory order repository used by unit tests and
// local development. It mirrors the Postgres adapter's guard semantics,
// including compare-and-swap failures.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	virement "virement-backoffice/internal/virement/domain"
)

// OrderRepository keeps orders in process memory.
type OrderRepository struct {
	mu      sync.Mutex
	orders  map[string]*virement.TransferOrder
	lines   map[string][]virement.TransferLine
	history map[string][]virement.TransferHistoryEntry
	seqs    map[int]int
}

// NewOrderRepository constructs an empty repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*virement.TransferOrder),
		lines:   make(map[string][]virement.TransferLine),
		history: make(map[string][]virement.TransferHistoryEntry),
		seqs:    make(map[int]int),
	}
}

// CreateOrder allocates the next year-scoped sequence and stores the order,
// lines and CREATED entry atomically.
func (r *OrderRepository) CreateOrder(_ context.Context, order *virement.TransferOrder, lines []virement.TransferLine, created virement.TransferHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return errors.New("memory: duplicate order id")
	}
	year := order.CreatedAt.UTC().Year()
	r.seqs[year]++
	order.Year = year
	order.Seq = r.seqs[year]
	order.Reference = virement.BuildReference(year, order.Seq)

	clone := *order
	r.orders[order.ID] = &clone
	r.lines[order.ID] = append([]virement.TransferLine(nil), lines...)
	r.history[order.ID] = []virement.TransferHistoryEntry{created}
	return nil
}

// GetByID returns a copy of the order; nil when absent.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*virement.TransferOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	clone := *order
	return &clone, nil
}

// List returns orders newest first, optionally filtered.
func (r *OrderRepository) List(_ context.Context, year int, executionStatus string) ([]virement.TransferOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var orders []virement.TransferOrder
	for _, order := range r.orders {
		if year > 0 && order.Year != year {
			continue
		}
		if executionStatus != "" && order.ExecutionStatus != executionStatus {
			continue
		}
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].Reference > orders[j].Reference
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// ListLines returns copies of an order's lines.
func (r *OrderRepository) ListLines(_ context.Context, orderID string) ([]virement.TransferLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]virement.TransferLine(nil), r.lines[orderID]...), nil
}

// ListHistory returns copies of an order's history oldest first.
func (r *OrderRepository) ListHistory(_ context.Context, orderID string) ([]virement.TransferHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]virement.TransferHistoryEntry(nil), r.history[orderID]...), nil
}

// CASValidation decides the validation gate, guarded on the previous status.
func (r *OrderRepository) CASValidation(_ context.Context, orderID, prev, next, approverID, reason string, at time.Time, entry virement.TransferHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.ValidationStatus != prev {
		return virement.ErrConcurrentModification
	}
	order.ValidationStatus = next
	order.ApproverID = approverID
	order.ValidationReason = reason
	order.ValidatedAt = at.UTC()
	r.history[orderID] = append(r.history[orderID], entry)
	return nil
}

// CASExecution moves the execution status, guarded on the previous status.
func (r *OrderRepository) CASExecution(_ context.Context, orderID, prev, next, motif string, executedAt time.Time, rejected []virement.LineRejection, entry virement.TransferHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.ExecutionStatus != prev {
		return virement.ErrConcurrentModification
	}
	order.ExecutionStatus = next
	order.Motif = motif
	if !executedAt.IsZero() {
		order.ExecutedAt = executedAt.UTC()
	}
	lines := r.lines[orderID]
	for _, rejection := range rejected {
		found := false
		for i := range lines {
			if lines[i].ID == rejection.LineID {
				lines[i].Status = virement.LineRejected
				lines[i].RejectReason = rejection.Reason
				found = true
				break
			}
		}
		if !found {
			return virement.ErrConcurrentModification
		}
	}
	r.history[orderID] = append(r.history[orderID], entry)
	return nil
}

// CASRecovery records a recovery request or confirmation with the same
// ordering guards as the Postgres adapter.
func (r *OrderRepository) CASRecovery(_ context.Context, orderID string, confirm bool, at time.Time, entry virement.TransferHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return virement.ErrConcurrentModification
	}
	if confirm {
		if !order.RecoveryRequested || order.RecoveryConfirmed {
			return virement.ErrConcurrentModification
		}
		order.RecoveryConfirmed = true
		order.RecoveryConfirmedAt = at.UTC()
	} else {
		if order.RecoveryRequested {
			return virement.ErrConcurrentModification
		}
		order.RecoveryRequested = true
		order.RecoveryRequestedAt = at.UTC()
	}
	r.history[orderID] = append(r.history[orderID], entry)
	return nil
}

// ClaimFiles stores document paths while the order is still NON_EXECUTED.
func (r *OrderRepository) ClaimFiles(_ context.Context, orderID, advicePath, bankPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.ExecutionStatus != virement.ExecutionNotExecuted {
		return virement.ErrConcurrentModification
	}
	order.AdviceDocPath = advicePath
	order.BankFilePath = bankPath
	return nil
}
