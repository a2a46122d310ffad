package bankfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedFile is returned when a line does not match the layout.
	ErrMalformedFile = errors.New("bankfile: malformed file")
	// ErrTrailerMismatch is returned when trailer count or total disagree
	// with the detail lines.
	ErrTrailerMismatch = errors.New("bankfile: trailer mismatch")
)

// Decode parses a fixed-width file back into records. It is the exact
// inverse of Encode: re-encoding the result reproduces the input bytes.
func Decode(layout Layout, data []byte) ([]Record, error) {
	content := string(data)
	if content == "" {
		return nil, ErrMalformedFile
	}
	if !strings.HasSuffix(content, layout.LineEnding) {
		return nil, fmt.Errorf("%w: missing final line ending", ErrMalformedFile)
	}
	lines := strings.Split(strings.TrimSuffix(content, layout.LineEnding), layout.LineEnding)

	var records []Record
	var total int64
	trailerSeen := false
	for i, line := range lines {
		if len(line) != layout.lineWidth() {
			return nil, fmt.Errorf("%w: line %d width %d, want %d", ErrMalformedFile, i+1, len(line), layout.lineWidth())
		}
		if trailerSeen {
			return nil, fmt.Errorf("%w: line %d after trailer", ErrMalformedFile, i+1)
		}
		if layout.TrailerCode != "" && strings.HasPrefix(line, layout.TrailerCode) {
			if err := checkTrailer(layout, line, len(records), total); err != nil {
				return nil, err
			}
			trailerSeen = true
			continue
		}
		rec, err := decodeDetail(layout, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		records = append(records, rec)
		total += rec.Amount
	}
	if layout.TrailerCode != "" && !trailerSeen {
		return nil, fmt.Errorf("%w: missing trailer", ErrMalformedFile)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no detail lines", ErrMalformedFile)
	}
	return records, nil
}

func decodeDetail(layout Layout, line string) (Record, error) {
	var rec Record
	pos := 0
	next := func(width int) string {
		field := line[pos : pos+width]
		pos += width
		return field
	}

	if code := next(len(layout.DetailCode)); code != layout.DetailCode {
		return rec, fmt.Errorf("%w: transaction code %q", ErrMalformedFile, code)
	}
	valueDate, err := time.Parse(layout.DateFormat, next(dateWidth))
	if err != nil {
		return rec, fmt.Errorf("%w: value date: %v", ErrMalformedFile, err)
	}
	rec.ValueDate = valueDate
	rec.Reference = strings.TrimRight(next(layout.RefWidth), " ")

	amountField := next(layout.AmountWidth)
	minor, err := strconv.ParseInt(amountField, 10, 64)
	if err != nil {
		return rec, fmt.Errorf("%w: amount %q", ErrMalformedFile, amountField)
	}
	rec.Amount = minor

	rec.PayerRIB = next(payerRIBWidth)
	if !allDigits(rec.PayerRIB) {
		return rec, fmt.Errorf("%w: payer rib %q", ErrMalformedFile, rec.PayerRIB)
	}
	rec.BeneficiaryRIB = strings.TrimRight(next(layout.RIBWidth), " ")
	if !allDigits(rec.BeneficiaryRIB) {
		return rec, fmt.Errorf("%w: beneficiary rib %q", ErrMalformedFile, rec.BeneficiaryRIB)
	}
	rec.BeneficiaryName = strings.TrimRight(next(layout.NameWidth), " ")
	rec.Description = strings.TrimRight(next(layout.DescWidth), " ")
	return rec, nil
}

func checkTrailer(layout Layout, line string, count int, total int64) error {
	pos := len(layout.TrailerCode)
	countField := line[pos : pos+6]
	pos += 6
	totalField := line[pos : pos+layout.AmountWidth]
	pos += layout.AmountWidth
	if strings.TrimRight(line[pos:], " ") != "" {
		return fmt.Errorf("%w: trailing content", ErrMalformedFile)
	}
	gotCount, err := strconv.Atoi(countField)
	if err != nil {
		return fmt.Errorf("%w: count %q", ErrMalformedFile, countField)
	}
	gotTotal, err := strconv.ParseInt(totalField, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: total %q", ErrMalformedFile, totalField)
	}
	if gotCount != count || gotTotal != total {
		return fmt.Errorf("%w: count %d/%d total %d/%d", ErrTrailerMismatch, gotCount, count, gotTotal, total)
	}
	return nil
}
