package beneficiary

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Beneficiary statuses. Beneficiaries are never hard-deleted.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// RIBLength is the fixed digit length of a bank account identifier.
const RIBLength = 20

var (
	// ErrInvalidRIB is returned when a RIB is not exactly 20 digits.
	ErrInvalidRIB = errors.New("beneficiary: invalid rib")
	// ErrDuplicateMatricule is returned when (matricule, client) already exists.
	ErrDuplicateMatricule = errors.New("beneficiary: duplicate matricule for client")
	// ErrNotFound is returned when a beneficiary does not exist.
	ErrNotFound = errors.New("beneficiary: not found")
)

// Beneficiary is a payee in the registry, unique per (matricule, client).
type Beneficiary struct {
	ID           string
	ClientID     string
	Matricule    string
	Name         string
	RIB          string
	ContractCode string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the beneficiary may receive transfers.
func (b *Beneficiary) Active() bool {
	return b != nil && b.Status == StatusActive
}

// ValidateRIB checks the registry's digit-length rule.
func ValidateRIB(rib string) error {
	if len(rib) != RIBLength {
		return ErrInvalidRIB
	}
	for _, r := range rib {
		if r < '0' || r > '9' {
			return ErrInvalidRIB
		}
	}
	return nil
}

// NewID generates a random beneficiary id.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "ben-" + hex.EncodeToString(buf)
}
