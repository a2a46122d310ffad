package interfaces

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"virement-backoffice/internal/beneficiary/application"
	beneficiary "virement-backoffice/internal/beneficiary/domain"
)

// ErrEmptySheet is returned when the workbook has no data rows.
var ErrEmptySheet = errors.New("registry import: empty sheet")

// ParseRegistryXLSX reads an administrative import workbook. The first sheet
// must carry a header row (MATRICULE, NOM, RIB, CONTRAT) followed by one row
// per beneficiary.
func ParseRegistryXLSX(reader io.Reader) ([]application.ImportRow, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("registry import: open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("registry import: read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	var result []application.ImportRow
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		item := application.ImportRow{Matricule: cell(row, 0), Name: cell(row, 1), RIB: cell(row, 2), ContractCode: cell(row, 3)}
		if item.Matricule == "" && item.Name == "" && item.RIB == "" {
			continue
		}
		result = append(result, item)
	}
	if len(result) == 0 {
		return nil, ErrEmptySheet
	}
	return result, nil
}

// BuildRegistryXLSX renders the registry of a client as a workbook for
// back-office review.
func BuildRegistryXLSX(items []beneficiary.Beneficiary) ([]byte, error) {
	workbook := excelize.NewFile()
	sheet := "beneficiaires"
	workbook.SetSheetName("Sheet1", sheet)

	headers := []string{"MATRICULE", "NOM", "RIB", "CONTRAT", "STATUT"}
	for i, header := range headers {
		column := string(rune('A' + i))
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("%s1", column), header)
	}
	for i, item := range items {
		row := i + 2
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Matricule)
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Name)
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.RIB)
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.ContractCode)
		_ = workbook.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Status)
	}

	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
