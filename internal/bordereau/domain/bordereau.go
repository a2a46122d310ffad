package bordereau

import (
	"errors"
	"time"
)

// Bordereau statuses visible to the transfer engine. The claims module owns
// the full lifecycle; this core only reads READY_FOR_PAYMENT and writes
// CLOSED once an order reaches EXECUTE.
const (
	StatusReadyForPayment = "READY_FOR_PAYMENT"
	StatusClosed          = "CLOSED"
)

// ErrNotFound is returned when a bordereau does not exist.
var ErrNotFound = errors.New("bordereau: not found")

// Bordereau is a closed claims batch whose beneficiaries become transfer lines.
type Bordereau struct {
	ID        string
	ClientID  string
	Reference string
	Status    string
	ClosedAt  time.Time
}
