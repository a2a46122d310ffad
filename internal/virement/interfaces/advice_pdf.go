package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	payer "virement-backoffice/internal/payer/domain"
	virement "virement-backoffice/internal/virement/domain"
)

// AdvicePDFRenderer renders the payment advice document handed to the bank
// alongside the transfer file. Output depends only on the order, its lines
// and the payer profile, so regenerating an untouched order yields
// byte-identical documents.
type AdvicePDFRenderer struct {
	Issuer string
}

// RenderAdvice renders the advice for one order.
func (a AdvicePDFRenderer) RenderAdvice(order *virement.TransferOrder, lines []virement.TransferLine, profile *payer.Profile) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Avis d'execution - Ordre de virement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if a.Issuer != "" {
		pdf.Cell(0, 6, a.Issuer)
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Reference: %s", order.Reference))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Donneur d'ordre: %s", profile.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Banque: %s / %s", profile.BankName, profile.Branch))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("RIB: %s", profile.RIB))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date de valeur: %s", order.ValueDate.Format("02/01/2006")))
	pdf.Ln(5)
	if order.BordereauRef != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Bordereau: %s", order.BordereauRef))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Beneficiaires: %d", order.BeneficiaryCount))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Matricule", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Beneficiaire", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "RIB", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Montant", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range lines {
		pdf.CellFormat(30, 6, line.Matricule, "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, line.BeneficiaryName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, line.RIB, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, line.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(155, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, order.TotalAmount.String(), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
