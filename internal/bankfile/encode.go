package bankfile

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrFieldOverflow is returned when a non-truncatable field does not fit
	// its fixed column width.
	ErrFieldOverflow = errors.New("bankfile: field overflow")
	// ErrEmptyFile is returned when encoding zero records.
	ErrEmptyFile = errors.New("bankfile: no records")
)

// Encode renders records as a fixed-width file for the layout. Name and
// description are truncated deterministically to their column widths;
// reference, amount and account numbers must fit exactly or encoding fails.
// Output is a pure function of its input.
func Encode(layout Layout, records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	var b strings.Builder
	var total int64
	for i, rec := range records {
		line, err := encodeDetail(layout, rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		b.WriteString(line)
		b.WriteString(layout.LineEnding)
		total += rec.Amount
	}
	if layout.TrailerCode != "" {
		trailer, err := encodeTrailer(layout, len(records), total)
		if err != nil {
			return nil, err
		}
		b.WriteString(trailer)
		b.WriteString(layout.LineEnding)
	}
	return []byte(b.String()), nil
}

func encodeDetail(layout Layout, rec Record) (string, error) {
	ref := strings.TrimRight(rec.Reference, " ")
	if len(ref) > layout.RefWidth {
		return "", fmt.Errorf("%w: reference %q exceeds %d", ErrFieldOverflow, ref, layout.RefWidth)
	}
	if len(rec.PayerRIB) != payerRIBWidth || !allDigits(rec.PayerRIB) {
		return "", fmt.Errorf("%w: payer rib must be %d digits", ErrFieldOverflow, payerRIBWidth)
	}
	rib := strings.TrimRight(rec.BeneficiaryRIB, " ")
	if len(rib) > layout.RIBWidth || !allDigits(rib) {
		return "", fmt.Errorf("%w: beneficiary rib %q exceeds %d", ErrFieldOverflow, rib, layout.RIBWidth)
	}
	amountField, err := encodeAmount(rec.Amount, layout.AmountWidth)
	if err != nil {
		return "", err
	}
	name := truncate(strings.TrimRight(rec.BeneficiaryName, " "), layout.NameWidth)
	desc := truncate(strings.TrimRight(rec.Description, " "), layout.DescWidth)

	var b strings.Builder
	b.WriteString(layout.DetailCode)
	b.WriteString(rec.ValueDate.Format(layout.DateFormat))
	b.WriteString(padRight(ref, layout.RefWidth))
	b.WriteString(amountField)
	b.WriteString(rec.PayerRIB)
	b.WriteString(padRight(rib, layout.RIBWidth))
	b.WriteString(padRight(name, layout.NameWidth))
	b.WriteString(padRight(desc, layout.DescWidth))
	return b.String(), nil
}

func encodeTrailer(layout Layout, count int, total int64) (string, error) {
	totalField, err := encodeAmount(total, layout.AmountWidth)
	if err != nil {
		return "", fmt.Errorf("trailer: %w", err)
	}
	var b strings.Builder
	b.WriteString(layout.TrailerCode)
	b.WriteString(fmt.Sprintf("%06d", count))
	b.WriteString(totalField)
	return padRight(b.String(), layout.lineWidth()), nil
}

func encodeAmount(minor int64, width int) (string, error) {
	if minor < 0 {
		return "", fmt.Errorf("%w: negative amount", ErrFieldOverflow)
	}
	field := fmt.Sprintf("%0*d", width, minor)
	if len(field) > width {
		return "", fmt.Errorf("%w: amount %d exceeds %d digits", ErrFieldOverflow, minor, width)
	}
	return field, nil
}

// truncate cuts to the byte width, backing up to a rune boundary so a
// multi-byte character is dropped whole rather than split into an invalid
// tail byte.
func truncate(value string, width int) string {
	if len(value) <= width {
		return value
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return strings.TrimRight(value[:cut], " ")
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return value + strings.Repeat(" ", width-len(value))
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
