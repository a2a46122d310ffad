package payer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Payer profile statuses. Profiles referenced by an order are immutable;
// retirement is deactivation, never deletion.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

var (
	// ErrNotFound is returned when a payer profile does not exist.
	ErrNotFound = errors.New("payer: profile not found")
	// ErrInactive is returned when an order targets a deactivated profile.
	ErrInactive = errors.New("payer: profile inactive")
)

// Profile is a donneur d'ordre: the paying bank account issuing transfers,
// bound to one fixed-width bank file layout variant.
type Profile struct {
	ID            string
	Name          string
	RIB           string
	BankName      string
	Branch        string
	LayoutVariant string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the profile may issue new orders.
func (p *Profile) Active() bool {
	return p != nil && p.Status == StatusActive
}

// NewID generates a random profile id.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "do-" + hex.EncodeToString(buf)
}
