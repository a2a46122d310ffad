package amount

import (
	"errors"
	"fmt"
	"strings"
)

// Amount is a money value in millimes (thousandths of a dinar).
type Amount int64

// Decimals is the number of minor-unit digits carried by Amount.
const Decimals = 3

// maxWholeDigits bounds the integer part so the millime value always fits
// int64 without wrapping (15 digits + 3 decimals < 9.2e18).
const maxWholeDigits = 15

var (
	// ErrInvalidAmount is returned when a string is not a valid amount.
	ErrInvalidAmount = errors.New("amount: invalid amount")
	// ErrTooManyDecimals is returned when more than three decimals are given.
	ErrTooManyDecimals = errors.New("amount: too many decimals")
)

// Parse converts a decimal string ("250.500", "99", "0.001") to millimes.
// The decimal separator may be '.' or ','.
func Parse(value string) (Amount, error) {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ",", ".")
	if value == "" {
		return 0, ErrInvalidAmount
	}
	negative := false
	if value[0] == '-' {
		negative = true
		value = value[1:]
	}
	whole := value
	frac := ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole = value[:idx]
		frac = value[idx+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if len(frac) > Decimals {
		return 0, ErrTooManyDecimals
	}
	if len(strings.TrimLeft(whole, "0")) > maxWholeDigits {
		return 0, ErrInvalidAmount
	}
	var millimes int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
		millimes = millimes*10 + int64(r-'0')
	}
	for i := 0; i < Decimals; i++ {
		millimes *= 10
		if i < len(frac) {
			r := frac[i]
			if r < '0' || r > '9' {
				return 0, ErrInvalidAmount
			}
			millimes += int64(r - '0')
		}
	}
	if negative {
		millimes = -millimes
	}
	return Amount(millimes), nil
}

// String formats the amount with three decimals ("450.499").
func (a Amount) String() string {
	millimes := int64(a)
	sign := ""
	if millimes < 0 {
		sign = "-"
		millimes = -millimes
	}
	return fmt.Sprintf("%s%d.%03d", sign, millimes/1000, millimes%1000)
}

// Millimes returns the raw minor-unit value.
func (a Amount) Millimes() int64 {
	return int64(a)
}

// Positive reports whether the amount is strictly greater than zero.
func (a Amount) Positive() bool {
	return a > 0
}
