package virement

import "time"

// History actions outside the status transitions themselves.
const (
	ActionCreated           = "CREATED"
	ActionRecoveryRequested = "RECOVERY_REQUESTED"
	ActionRecoveryConfirmed = "RECOVERY_CONFIRMED"
)

// TransferHistoryEntry is one append-only audit row for an order. Exactly one
// entry is written per status transition, plus one CREATED entry at birth and
// one per recovery update.
type TransferHistoryEntry struct {
	ID             string
	OrderID        string
	ActorID        string
	Action         string
	PreviousStatus string // empty for CREATED
	NewStatus      string
	Comment        string
	CreatedAt      time.Time
}

// NewHistoryID generates a random history entry id.
func NewHistoryID() string {
	return "hist-" + randomHex(12)
}

// NewHistoryEntry builds a history entry stamped now.
func NewHistoryEntry(orderID, actorID, action, previous, next, comment string, at time.Time) TransferHistoryEntry {
	return TransferHistoryEntry{
		ID:             NewHistoryID(),
		OrderID:        orderID,
		ActorID:        actorID,
		Action:         action,
		PreviousStatus: previous,
		NewStatus:      next,
		Comment:        comment,
		CreatedAt:      at,
	}
}
