package application

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"virement-backoffice/internal/amount"
	beneficiary "virement-backoffice/internal/beneficiary/domain"
	bordereau "virement-backoffice/internal/bordereau/domain"
	payer "virement-backoffice/internal/payer/domain"
	virement "virement-backoffice/internal/virement/domain"
	"virement-backoffice/internal/virement/infrastructure/memory"
)

type stubBeneficiaries struct {
	byMatricule map[string]*beneficiary.Beneficiary
}

func (s *stubBeneficiaries) FindByMatricule(_ context.Context, _, matricule string) (*beneficiary.Beneficiary, error) {
	return s.byMatricule[matricule], nil
}

type stubPayers struct {
	profile *payer.Profile
}

func (s *stubPayers) GetByID(_ context.Context, id string) (*payer.Profile, error) {
	if s.profile != nil && s.profile.ID == id {
		return s.profile, nil
	}
	return nil, nil
}

type stubBordereaux struct {
	batch    *bordereau.Bordereau
	closed   []string
	closeErr error
}

func (s *stubBordereaux) GetByID(_ context.Context, id string) (*bordereau.Bordereau, error) {
	if s.batch != nil && s.batch.ID == id {
		return s.batch, nil
	}
	return nil, nil
}

func (s *stubBordereaux) MarkClosed(_ context.Context, id string, _ time.Time) error {
	if s.closeErr != nil {
		return s.closeErr
	}
	s.closed = append(s.closed, id)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) RenderAdvice(order *virement.TransferOrder, _ []virement.TransferLine, _ *payer.Profile) ([]byte, error) {
	return []byte("advice " + order.Reference), nil
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func activeBeneficiary(matricule, name, rib string) *beneficiary.Beneficiary {
	return &beneficiary.Beneficiary{
		ID:        beneficiary.NewID(),
		ClientID:  "client-1",
		Matricule: matricule,
		Name:      name,
		RIB:       rib,
		Status:    beneficiary.StatusActive,
	}
}

type fixture struct {
	service    *OrderService
	repo       *memory.OrderRepository
	payers     *stubPayers
	bordereaux *stubBordereaux
	clock      *fixedClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewOrderRepository()
	beneficiaries := &stubBeneficiaries{byMatricule: map[string]*beneficiary.Beneficiary{
		"MAT-001": activeBeneficiary("MAT-001", "Amira Ben Salah", "12345678901234567890"),
		"MAT-002": activeBeneficiary("MAT-002", "Hedi Trabelsi", "09876543210987654321"),
		"MAT-003": activeBeneficiary("MAT-003", "Sonia Gharbi", "11112222333344445555"),
	}}
	payers := &stubPayers{profile: &payer.Profile{
		ID:            "do-1",
		Name:          "Compagnie d'Assurance",
		RIB:           "07000011112222333344",
		BankName:      "STB",
		Branch:        "Tunis Centre",
		LayoutVariant: "stb",
		Status:        payer.StatusActive,
	}}
	bordereaux := &stubBordereaux{batch: &bordereau.Bordereau{
		ID:        "brd-1",
		ClientID:  "client-1",
		Reference: "BRD-2026-0007",
		Status:    bordereau.StatusReadyForPayment,
	}}
	clock := &fixedClock{now: time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC)}

	service, err := NewOrderService(repo, beneficiaries, payers, bordereaux, stubRenderer{}, Config{
		StorageRoot:         t.TempDir(),
		ValueDateOffsetDays: 1,
		AdviceIssuer:        "Back Office Assurance",
	}, clock, log.New(os.Stderr, "", 0))
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return &fixture{service: service, repo: repo, payers: payers, bordereaux: bordereaux, clock: clock}
}

func (f *fixture) buildInput(t *testing.T) BuildInput {
	t.Helper()
	return BuildInput{
		PayerProfileID: "do-1",
		BordereauID:    "brd-1",
		Rows: []BuildRow{
			{Matricule: "MAT-001", Amount: mustParse(t, "150.000")},
			{Matricule: "MAT-002", Amount: mustParse(t, "200.499")},
			{Matricule: "MAT-003", Amount: mustParse(t, "100,000")},
		},
	}
}

func mustParse(t *testing.T, raw string) amount.Amount {
	t.Helper()
	value, err := amount.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return value
}

func TestBuildComputesTotalsAndInitialStatuses(t *testing.T) {
	f := newFixture(t)
	order, err := f.service.Build(context.Background(), "prep-1", f.buildInput(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if order.TotalAmount.String() != "450.499" {
		t.Errorf("total = %s, want 450.499", order.TotalAmount)
	}
	if order.BeneficiaryCount != 3 {
		t.Errorf("beneficiary count = %d, want 3", order.BeneficiaryCount)
	}
	if order.ValidationStatus != virement.ValidationPending {
		t.Errorf("validation status = %s", order.ValidationStatus)
	}
	if order.ExecutionStatus != virement.ExecutionNotExecuted {
		t.Errorf("execution status = %s", order.ExecutionStatus)
	}
	if order.Reference != "OV-2026-00001" {
		t.Errorf("reference = %s", order.Reference)
	}
	if !order.ValueDate.Equal(f.clock.now.AddDate(0, 0, 1)) {
		t.Errorf("default value date = %s", order.ValueDate)
	}
	if order.BordereauRef != "BRD-2026-0007" {
		t.Errorf("bordereau ref = %s", order.BordereauRef)
	}

	history, err := f.repo.ListHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 || history[0].Action != virement.ActionCreated {
		t.Fatalf("expected single CREATED entry, got %+v", history)
	}

	lines, _ := f.repo.ListLines(context.Background(), order.ID)
	for _, line := range lines {
		if line.BeneficiaryName == "" || line.RIB == "" {
			t.Errorf("line %s missing snapshot", line.ID)
		}
		if line.Status != virement.LineValid {
			t.Errorf("line %s status = %s", line.ID, line.Status)
		}
	}
}

func TestBuildRejectsWholeSubmissionOnBadRows(t *testing.T) {
	f := newFixture(t)
	input := f.buildInput(t)
	input.Rows = append(input.Rows, BuildRow{Matricule: "MAT-404", Amount: mustParse(t, "10.000")})

	_, err := f.service.Build(context.Background(), "prep-1", input)
	inputErr, ok := virement.AsValidationInputError(err)
	if !ok {
		t.Fatalf("expected ValidationInputError, got %v", err)
	}
	if len(inputErr.Rows) != 1 {
		t.Fatalf("row errors = %+v", inputErr.Rows)
	}
	if inputErr.Rows[0].Row != 4 || inputErr.Rows[0].Reason != virement.ReasonUnknownMatricule {
		t.Errorf("unexpected row error %+v", inputErr.Rows[0])
	}

	orders, _ := f.repo.List(context.Background(), 0, "")
	if len(orders) != 0 {
		t.Fatal("nothing must be persisted when a row fails")
	}
}

func TestBuildCollectsAllRowErrors(t *testing.T) {
	f := newFixture(t)
	input := f.buildInput(t)
	input.Rows = []BuildRow{
		{Matricule: "MAT-001", Amount: mustParse(t, "150.000")},
		{Matricule: "MAT-001", Amount: mustParse(t, "10.000")},
		{Matricule: "MAT-404", Amount: mustParse(t, "10.000")},
		{Matricule: "MAT-002", Amount: 0},
	}
	_, err := f.service.Build(context.Background(), "prep-1", input)
	inputErr, ok := virement.AsValidationInputError(err)
	if !ok {
		t.Fatalf("expected ValidationInputError, got %v", err)
	}
	if len(inputErr.Rows) != 3 {
		t.Fatalf("expected 3 row errors, got %+v", inputErr.Rows)
	}
	reasons := map[string]bool{}
	for _, rowErr := range inputErr.Rows {
		reasons[rowErr.Reason] = true
	}
	for _, want := range []string{virement.ReasonDuplicateMatricule, virement.ReasonUnknownMatricule, virement.ReasonNonPositiveAmount} {
		if !reasons[want] {
			t.Errorf("missing reason %s in %+v", want, inputErr.Rows)
		}
	}
}

func TestBuildRejectsInactivePayer(t *testing.T) {
	f := newFixture(t)
	f.payers.profile.Status = payer.StatusInactive
	_, err := f.service.Build(context.Background(), "prep-1", f.buildInput(t))
	if !errors.Is(err, payer.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestReferencesAreSequentialPerYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.service.Build(ctx, "prep-1", f.buildInput(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := f.service.Build(ctx, "prep-1", f.buildInput(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.Reference != "OV-2026-00001" || second.Reference != "OV-2026-00002" {
		t.Errorf("references = %s, %s", first.Reference, second.Reference)
	}

	f.clock.now = time.Date(2027, 1, 2, 9, 0, 0, 0, time.UTC)
	third, err := f.service.Build(ctx, "prep-1", f.buildInput(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if third.Reference != "OV-2027-00001" {
		t.Errorf("new year must restart the sequence, got %s", third.Reference)
	}
}

func TestValidationGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.service.Build(ctx, "prep-1", f.buildInput(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := f.service.Validate(ctx, order.ID, "prep-1"); !errors.Is(err, virement.ErrSelfApproval) {
		t.Fatalf("self approval: got %v", err)
	}

	validated, err := f.service.Validate(ctx, order.ID, "valid-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if validated.ValidationStatus != virement.ValidationApproved || validated.ApproverID != "valid-1" {
		t.Errorf("unexpected order after validation: %+v", validated)
	}

	// Second decision must fail and leave history untouched.
	before, _ := f.repo.ListHistory(ctx, order.ID)
	if _, err := f.service.Validate(ctx, order.ID, "valid-2"); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("double validation: got %v", err)
	}
	if _, err := f.service.RejectValidation(ctx, order.ID, "valid-2", "changed my mind"); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("reject after validate: got %v", err)
	}
	after, _ := f.repo.ListHistory(ctx, order.ID)
	if len(after) != len(before) {
		t.Errorf("history grew on refused decision: %d -> %d", len(before), len(after))
	}
}

func TestRejectedValidationIsDeadEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))

	rejected, err := f.service.RejectValidation(ctx, order.ID, "valid-1", "montant errone")
	if err != nil {
		t.Fatalf("RejectValidation: %v", err)
	}
	if rejected.ValidationStatus != virement.ValidationRejected || rejected.ValidationReason != "montant errone" {
		t.Errorf("unexpected order: %+v", rejected)
	}
	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil); !errors.Is(err, virement.ErrNotValidated) {
		t.Fatalf("execution on rejected order: got %v", err)
	}
}

func TestExecutionLifecycleToRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	if _, err := f.service.Validate(ctx, order.ID, "valid-1"); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionExecuted, "", nil); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("NON_EXECUTED -> EXECUTE must be refused, got %v", err)
	}
	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil); err != nil {
		t.Fatalf("start execution: %v", err)
	}
	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionRejected, "", nil); !errors.Is(err, virement.ErrMotifRequired) {
		t.Fatalf("REJETE without motif: got %v", err)
	}
	final, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionRejected, "RIB invalide", nil)
	if err != nil {
		t.Fatalf("reject execution: %v", err)
	}
	if final.ExecutionStatus != virement.ExecutionRejected || final.Motif != "RIB invalide" {
		t.Errorf("unexpected final order: %+v", final)
	}

	history, _ := f.repo.ListHistory(ctx, order.ID)
	actions := make([]string, 0, len(history))
	for _, entry := range history {
		actions = append(actions, entry.Action)
	}
	want := []string{virement.ActionCreated, virement.ValidationApproved, virement.ExecutionInProgress, virement.ExecutionRejected}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Errorf("history actions = %v, want %v", actions, want)
	}
	for _, entry := range history {
		if entry.NewStatus == virement.ExecutionRejected && entry.Comment == "" {
			t.Error("rejection entry must carry the motif")
		}
	}

	// Terminal: no further execution report is accepted.
	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("transition out of REJETE: got %v", err)
	}
}

func TestPartialExecutionFlipsRejectedLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	_, _ = f.service.Validate(ctx, order.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil)

	lines, _ := f.repo.ListLines(ctx, order.ID)

	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionPartial, "", nil); err == nil {
		t.Fatal("partial without rejections must fail")
	}
	rejectAll := make([]virement.LineRejection, 0, len(lines))
	for _, line := range lines {
		rejectAll = append(rejectAll, virement.LineRejection{LineID: line.ID, Reason: "RIB cloture"})
	}
	if _, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionPartial, "", rejectAll); err == nil {
		t.Fatal("partial rejecting every line must fail")
	}

	rejections := []virement.LineRejection{{LineID: lines[1].ID, Reason: "RIB cloture"}}
	final, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionPartial, "", rejections)
	if err != nil {
		t.Fatalf("partial execution: %v", err)
	}
	if final.ExecutionStatus != virement.ExecutionPartial {
		t.Errorf("status = %s", final.ExecutionStatus)
	}
	if final.TotalAmount.String() != "450.499" {
		t.Errorf("order total must stay untouched, got %s", final.TotalAmount)
	}

	updated, _ := f.repo.ListLines(ctx, order.ID)
	var transferred amount.Amount
	rejectedCount := 0
	for _, line := range updated {
		if line.Status == virement.LineRejected {
			rejectedCount++
			if line.RejectReason != "RIB cloture" {
				t.Errorf("rejected line missing reason: %+v", line)
			}
		} else {
			transferred += line.Amount
		}
	}
	if rejectedCount != 1 {
		t.Errorf("rejected lines = %d, want 1", rejectedCount)
	}
	if got := virement.TransferredAmount(updated); got != transferred || got.String() != "250.000" {
		t.Errorf("transferred = %s, want 250.000", got)
	}
}

func TestExecutedOrderClosesBordereau(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	_, _ = f.service.Validate(ctx, order.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil)

	final, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionExecuted, "", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if final.ExecutedAt.IsZero() {
		t.Error("executed_at must be stamped")
	}
	if len(f.bordereaux.closed) != 1 || f.bordereaux.closed[0] != "brd-1" {
		t.Errorf("bordereau closures = %v", f.bordereaux.closed)
	}
}

func TestBordereauCloseFailureDoesNotFailExecution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	_, _ = f.service.Validate(ctx, order.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil)

	f.bordereaux.closeErr = errors.New("claims service down")
	final, err := f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionExecuted, "", nil)
	if err != nil {
		t.Fatalf("execute must succeed despite close failure: %v", err)
	}
	if final.ExecutionStatus != virement.ExecutionExecuted {
		t.Errorf("status = %s", final.ExecutionStatus)
	}
}

func TestRecoveryOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))

	// Not requestable before the bank touched the order.
	if _, err := f.service.RequestRecovery(ctx, order.ID, "valid-1", ""); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("recovery on NON_EXECUTED: got %v", err)
	}
	if _, err := f.service.ConfirmRecovery(ctx, order.ID, "valid-1", ""); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("confirm before request: got %v", err)
	}

	_, _ = f.service.Validate(ctx, order.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil)
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionBlocked, "compte gele", nil)

	requested, err := f.service.RequestRecovery(ctx, order.ID, "valid-1", "fonds bloques")
	if err != nil {
		t.Fatalf("RequestRecovery: %v", err)
	}
	if !requested.RecoveryRequested || requested.RecoveryRequestedAt.IsZero() {
		t.Errorf("unexpected order: %+v", requested)
	}
	if _, err := f.service.RequestRecovery(ctx, order.ID, "valid-1", ""); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("double request: got %v", err)
	}

	confirmed, err := f.service.ConfirmRecovery(ctx, order.ID, "valid-1", "fonds recuperes")
	if err != nil {
		t.Fatalf("ConfirmRecovery: %v", err)
	}
	if !confirmed.RecoveryConfirmed {
		t.Errorf("unexpected order: %+v", confirmed)
	}
	if _, err := f.service.ConfirmRecovery(ctx, order.ID, "valid-1", ""); !errors.Is(err, virement.ErrIllegalTransition) {
		t.Fatalf("double confirm: got %v", err)
	}

	history, _ := f.repo.ListHistory(ctx, order.ID)
	last := history[len(history)-1]
	if last.Action != virement.ActionRecoveryConfirmed {
		t.Errorf("last history action = %s", last.Action)
	}
	if history[len(history)-2].Action != virement.ActionRecoveryRequested {
		t.Errorf("request entry missing: %+v", history)
	}
}

func TestGenerateFilesWritesDocumentsAndIsLockedAfterExecution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))

	advicePath, bankPath, err := f.service.GenerateFiles(ctx, order.ID)
	if err != nil {
		t.Fatalf("GenerateFiles: %v", err)
	}
	if advicePath != order.Reference+".pdf" || bankPath != order.Reference+".txt" {
		t.Errorf("paths = %s, %s", advicePath, bankPath)
	}
	bankData, err := os.ReadFile(f.service.DocumentPath(bankPath))
	if err != nil {
		t.Fatalf("read bank file: %v", err)
	}
	text := string(bankData)
	if !strings.Contains(text, order.Reference) {
		t.Error("bank file must carry the order reference")
	}
	if !strings.Contains(text, "BRD-2026-0007") {
		t.Error("bank file description must carry the bordereau reference")
	}
	// stb layout: 3 detail lines plus trailer, CRLF-terminated.
	if got := strings.Count(text, "\r\n"); got != 4 {
		t.Errorf("line count = %d, want 4", got)
	}
	if !strings.Contains(text, "19000003000000000450499") {
		t.Error("trailer must carry count 3 and total 450499 millimes")
	}

	// Regeneration while NON_EXECUTED rewrites identical bytes.
	if _, _, err := f.service.GenerateFiles(ctx, order.ID); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	again, _ := os.ReadFile(f.service.DocumentPath(bankPath))
	if string(again) != text {
		t.Error("regeneration must be byte-identical")
	}

	stored, _ := f.repo.GetByID(ctx, order.ID)
	if stored.AdviceDocPath != advicePath || stored.BankFilePath != bankPath {
		t.Errorf("paths not claimed: %+v", stored)
	}
	if filepath.Ext(stored.AdviceDocPath) != ".pdf" {
		t.Errorf("advice path = %s", stored.AdviceDocPath)
	}

	_, _ = f.service.Validate(ctx, order.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, order.ID, "valid-1", virement.ExecutionInProgress, "", nil)
	if _, _, err := f.service.GenerateFiles(ctx, order.ID); !errors.Is(err, virement.ErrRegenerationLocked) {
		t.Fatalf("regeneration after execution start: got %v", err)
	}
}

func TestGenerateFilesUnknownLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	f.payers.profile.LayoutVariant = "ubci"
	if _, _, err := f.service.GenerateFiles(ctx, order.ID); !errors.Is(err, virement.ErrUnknownLayout) {
		t.Fatalf("unknown layout: got %v", err)
	}
}

func TestListFiltersByYearAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	f.clock.now = f.clock.now.Add(time.Hour)
	second, _ := f.service.Build(ctx, "prep-1", f.buildInput(t))
	_, _ = f.service.Validate(ctx, second.ID, "valid-1")
	_, _ = f.service.ReportExecution(ctx, second.ID, "valid-1", virement.ExecutionInProgress, "", nil)

	pending, err := f.service.List(ctx, 2026, virement.ExecutionNotExecuted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Errorf("pending = %+v", pending)
	}
	if _, err := f.service.List(ctx, 0, "DONE"); err == nil {
		t.Fatal("unknown execution status filter must be refused")
	}
	all, _ := f.service.List(ctx, 0, "")
	if len(all) != 2 {
		t.Errorf("all = %d orders", len(all))
	}
	if all[0].ID != second.ID {
		t.Error("list must be newest first")
	}
}

func TestGetReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	if _, _, _, err := f.service.Get(context.Background(), "ov-missing"); !errors.Is(err, virement.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
