package application

import (
	"context"
	"testing"

	beneficiaryrepo "virement-backoffice/internal/beneficiary/infrastructure/postgres"
)

// Row validation happens before any persistence, so these cases never touch
// the database.
func newValidationOnlyService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(beneficiaryrepo.NewRepository(nil))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestImportRejectsBadRowsWithFullErrorList(t *testing.T) {
	service := newValidationOnlyService(t)
	rows := []ImportRow{
		{Matricule: "MAT-001", Name: "Amira Ben Salah", RIB: "12345678901234567890"},
		{Matricule: "", Name: "Sans Matricule", RIB: "12345678901234567891"},
		{Matricule: "MAT-001", Name: "Doublon", RIB: "12345678901234567892"},
		{Matricule: "MAT-002", Name: "", RIB: "12345678901234567893"},
		{Matricule: "MAT-003", Name: "RIB Court", RIB: "1234"},
	}
	rowErrors, err := service.Import(context.Background(), "client-1", rows)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(rowErrors) != 4 {
		t.Fatalf("expected 4 row errors, got %+v", rowErrors)
	}
	byReason := map[string]int{}
	for _, rowErr := range rowErrors {
		byReason[rowErr.Reason]++
	}
	for _, want := range []string{"EMPTY_MATRICULE", "DUPLICATE_MATRICULE", "EMPTY_NAME", "INVALID_RIB"} {
		if byReason[want] != 1 {
			t.Errorf("reason %s count = %d, want 1 (%+v)", want, byReason[want], rowErrors)
		}
	}
}

func TestImportRequiresClientAndRows(t *testing.T) {
	service := newValidationOnlyService(t)
	if _, err := service.Import(context.Background(), "", []ImportRow{{Matricule: "MAT-001"}}); err == nil {
		t.Fatal("missing client_id must be refused")
	}
	if _, err := service.Import(context.Background(), "client-1", nil); err == nil {
		t.Fatal("empty import must be refused")
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	service := newValidationOnlyService(t)
	if err := service.SetStatus(context.Background(), "ben-1", "DELETED"); err == nil {
		t.Fatal("unknown status must be refused")
	}
}
