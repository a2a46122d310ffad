package interfaces

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"virement-backoffice/internal/amount"
	"virement-backoffice/internal/virement/application"
)

// ErrEmptySheet is returned when the workbook has no data rows.
var ErrEmptySheet = errors.New("order import: empty sheet")

// ParseOrderRowsXLSX reads a builder submission workbook. The first sheet
// must carry a header row (MATRICULE, MONTANT) followed by one row per
// beneficiary payment. Amounts accept either '.' or ',' as decimal
// separator.
func ParseOrderRowsXLSX(reader io.Reader) ([]application.BuildRow, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("order import: open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("order import: read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	var result []application.BuildRow
	for i, row := range rows[1:] {
		matricule := cell(row, 0)
		raw := cell(row, 1)
		if matricule == "" && raw == "" {
			continue
		}
		value, err := amount.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("order import: row %d: %w", i+2, err)
		}
		result = append(result, application.BuildRow{Matricule: matricule, Amount: value})
	}
	if len(result) == 0 {
		return nil, ErrEmptySheet
	}
	return result, nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
