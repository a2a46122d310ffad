package virement

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"virement-backoffice/internal/amount"
)

// Validation statuses of a transfer order.
const (
	ValidationPending  = "PENDING_VALIDATION"
	ValidationApproved = "VALIDATED"
	ValidationRejected = "VALIDATION_REJECTED"
)

// Execution statuses of a transfer order.
const (
	ExecutionNotExecuted = "NON_EXECUTED"
	ExecutionInProgress  = "EN_COURS_EXECUTION"
	ExecutionExecuted    = "EXECUTE"
	ExecutionPartial     = "EXECUTE_PARTIELLEMENT"
	ExecutionRejected    = "REJETE"
	ExecutionBlocked     = "BLOQUE"
)

// Statuses of a single transfer line.
const (
	LineValid    = "VALID"
	LineRejected = "REJECTED_LINE"
)

// TransferOrder is one bank payment instruction covering many beneficiaries.
// A rejected order is never corrected in place: the retry is a new order
// referencing the same bordereau.
type TransferOrder struct {
	ID               string
	Reference        string
	Year             int
	Seq              int
	ClientID         string
	PayerProfileID   string
	BordereauID      string // empty for manual entry
	BordereauRef     string
	PreparerID       string
	ApproverID       string
	ValidationStatus string
	ValidationReason string
	ExecutionStatus  string
	Motif            string
	TotalAmount      amount.Amount
	BeneficiaryCount int
	ValueDate        time.Time
	AdviceDocPath    string
	BankFilePath     string
	CreatedAt        time.Time
	ValidatedAt      time.Time
	ExecutedAt       time.Time

	RecoveryRequested   bool
	RecoveryRequestedAt time.Time
	RecoveryConfirmed   bool
	RecoveryConfirmedAt time.Time
}

// TransferLine is a single beneficiary payment within an order. Beneficiary
// identity is snapshotted at build time so file generation stays a pure
// function of the order and its lines.
type TransferLine struct {
	ID              string
	OrderID         string
	BeneficiaryID   string
	Matricule       string
	BeneficiaryName string
	RIB             string
	Amount          amount.Amount
	Status          string
	RejectReason    string
}

// LineRejection names a line rejected during partial execution.
type LineRejection struct {
	LineID string
	Reason string
}

// BuildReference formats the year-scoped order reference.
func BuildReference(year, seq int) string {
	return fmt.Sprintf("OV-%d-%05d", year, seq)
}

// TransferredAmount derives the amount actually transferred: the sum over
// lines that were not rejected. The order total is never recomputed.
func TransferredAmount(lines []TransferLine) amount.Amount {
	var total amount.Amount
	for _, line := range lines {
		if line.Status != LineRejected {
			total += line.Amount
		}
	}
	return total
}

// NewOrderID generates a random order id.
func NewOrderID() string {
	return "ov-" + randomHex(12)
}

// NewLineID generates a random line id.
func NewLineID() string {
	return "ln-" + randomHex(12)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
