package interfaces

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"virement-backoffice/internal/amount"
	payer "virement-backoffice/internal/payer/domain"
	virement "virement-backoffice/internal/virement/domain"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	workbook := excelize.NewFile()
	sheet := "Sheet1"
	for i, row := range rows {
		for j, value := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := workbook.SetCellValue(sheet, cellRef, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	buffer, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buffer.Bytes()
}

func TestParseOrderRowsXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"MATRICULE", "MONTANT"},
		{"MAT-001", "150.000"},
		{"MAT-002", "200,499"},
		{"", ""},
		{"MAT-003", "100"},
	})
	rows, err := ParseOrderRowsXLSX(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseOrderRowsXLSX: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Matricule != "MAT-001" || rows[0].Amount != amount.Amount(150000) {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Amount != amount.Amount(200499) {
		t.Errorf("comma decimal separator not accepted: %+v", rows[1])
	}
	if rows[2].Amount != amount.Amount(100000) {
		t.Errorf("integer amount not scaled: %+v", rows[2])
	}
}

func TestParseOrderRowsXLSXBadAmount(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"MATRICULE", "MONTANT"},
		{"MAT-001", "150.0001"},
	})
	if _, err := ParseOrderRowsXLSX(bytes.NewReader(data)); !errors.Is(err, amount.ErrTooManyDecimals) {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}
}

func TestParseOrderRowsXLSXEmptySheet(t *testing.T) {
	data := buildWorkbook(t, [][]string{{"MATRICULE", "MONTANT"}})
	if _, err := ParseOrderRowsXLSX(bytes.NewReader(data)); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
}

func TestRenderAdviceIsDeterministic(t *testing.T) {
	createdAt := time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC)
	order := &virement.TransferOrder{
		ID:               "ov-1",
		Reference:        "OV-2026-00042",
		BordereauRef:     "BRD-2026-0007",
		TotalAmount:      amount.Amount(450499),
		BeneficiaryCount: 2,
		ValueDate:        createdAt.AddDate(0, 0, 1),
		CreatedAt:        createdAt,
	}
	lines := []virement.TransferLine{
		{Matricule: "MAT-001", BeneficiaryName: "Amira Ben Salah", RIB: "12345678901234567890", Amount: amount.Amount(150000), Status: virement.LineValid},
		{Matricule: "MAT-002", BeneficiaryName: "Hedi Trabelsi", RIB: "09876543210987654321", Amount: amount.Amount(300499), Status: virement.LineValid},
	}
	profile := &payer.Profile{Name: "Compagnie d'Assurance", RIB: "07000011112222333344", BankName: "STB", Branch: "Tunis Centre"}

	renderer := AdvicePDFRenderer{Issuer: "Back Office Assurance"}
	first, err := renderer.RenderAdvice(order, lines, profile)
	if err != nil {
		t.Fatalf("RenderAdvice: %v", err)
	}
	if !bytes.HasPrefix(first, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	second, err := renderer.RenderAdvice(order, lines, profile)
	if err != nil {
		t.Fatalf("RenderAdvice: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("advice rendering must be deterministic for an unchanged order")
	}
}
