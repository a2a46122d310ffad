package virement

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("virement: order not found")
	// ErrIllegalTransition is returned when the requested target status is
	// not reachable from the current status, or a validation decision is
	// repeated. No state change and no history write happen.
	ErrIllegalTransition = errors.New("virement: illegal transition")
	// ErrConcurrentModification is returned when the compare-and-swap on the
	// status field failed; the caller must re-read and retry.
	ErrConcurrentModification = errors.New("virement: concurrent modification")
	// ErrSelfApproval is returned when the preparer tries to validate their
	// own order.
	ErrSelfApproval = errors.New("virement: preparer may not approve own order")
	// ErrMotifRequired is returned when a REJETE/BLOQUE report carries no motif.
	ErrMotifRequired = errors.New("virement: motif required")
	// ErrNotValidated is returned when execution is requested on an order
	// that has not passed the validation gate.
	ErrNotValidated = errors.New("virement: order not validated")
	// ErrUnknownLayout is returned when the payer profile names a bank file
	// layout variant this build does not know.
	ErrUnknownLayout = errors.New("virement: unknown bank file layout")
	// ErrRegenerationLocked is returned when file generation is requested on
	// an order that already left NON_EXECUTED.
	ErrRegenerationLocked = errors.New("virement: files locked after execution started")
)

// Row error reasons for builder input.
const (
	ReasonUnknownMatricule    = "UNKNOWN_MATRICULE"
	ReasonInactiveBeneficiary = "INACTIVE_BENEFICIARY"
	ReasonInvalidRIB          = "INVALID_RIB"
	ReasonDuplicateMatricule  = "DUPLICATE_MATRICULE"
	ReasonNonPositiveAmount   = "NON_POSITIVE_AMOUNT"
)

// RowError describes one rejected input row.
type RowError struct {
	Row       int    `json:"row"`
	Matricule string `json:"matricule"`
	Reason    string `json:"reason"`
}

// ValidationInputError rejects a whole builder submission. Nothing is
// persisted; the caller fixes the listed rows and resubmits.
type ValidationInputError struct {
	Rows []RowError
}

// Error implements error.
func (e *ValidationInputError) Error() string {
	if e == nil || len(e.Rows) == 0 {
		return "virement: invalid input"
	}
	parts := make([]string, 0, len(e.Rows))
	for _, row := range e.Rows {
		parts = append(parts, fmt.Sprintf("row %d (%s): %s", row.Row, row.Matricule, row.Reason))
	}
	return "virement: invalid input: " + strings.Join(parts, "; ")
}

// AsValidationInputError unwraps err into a ValidationInputError.
func AsValidationInputError(err error) (*ValidationInputError, bool) {
	var inputErr *ValidationInputError
	if errors.As(err, &inputErr) {
		return inputErr, true
	}
	return nil, false
}
