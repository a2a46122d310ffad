package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"virement-backoffice/internal/amount"
	"virement-backoffice/internal/bankfile"
	beneficiary "virement-backoffice/internal/beneficiary/domain"
	bordereau "virement-backoffice/internal/bordereau/domain"
	"virement-backoffice/internal/observability/metrics"
	payer "virement-backoffice/internal/payer/domain"
	virement "virement-backoffice/internal/virement/domain"
)

// BeneficiaryResolver resolves matricules against the registry.
type BeneficiaryResolver interface {
	FindByMatricule(ctx context.Context, clientID, matricule string) (*beneficiary.Beneficiary, error)
}

// PayerProvider loads payer profiles.
type PayerProvider interface {
	GetByID(ctx context.Context, id string) (*payer.Profile, error)
}

// BordereauProvider loads claims batches and records their closure.
type BordereauProvider interface {
	GetByID(ctx context.Context, id string) (*bordereau.Bordereau, error)
	MarkClosed(ctx context.Context, id string, at time.Time) error
}

// AdviceRenderer renders the payment advice document.
type AdviceRenderer interface {
	RenderAdvice(order *virement.TransferOrder, lines []virement.TransferLine, profile *payer.Profile) ([]byte, error)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

// BuildRow is one (matricule, amount) row of a builder submission.
type BuildRow struct {
	Matricule string
	Amount    amount.Amount
}

// BuildInput is a builder submission. Exactly one of BordereauID or ClientID
// scopes the matricule resolution.
type BuildInput struct {
	PayerProfileID string
	BordereauID    string
	ClientID       string
	ValueDate      time.Time
	Rows           []BuildRow
}

// OrderService drives the transfer order lifecycle.
type OrderService struct {
	repo          virement.OrderRepository
	beneficiaries BeneficiaryResolver
	payers        PayerProvider
	bordereaux    BordereauProvider
	renderer      AdviceRenderer
	cfg           Config
	clock         Clock
	logger        *log.Logger
}

// NewOrderService constructs a service.
func NewOrderService(
	repo virement.OrderRepository,
	beneficiaries BeneficiaryResolver,
	payers PayerProvider,
	bordereaux BordereauProvider,
	renderer AdviceRenderer,
	cfg Config,
	clock Clock,
	logger *log.Logger,
) (*OrderService, error) {
	if repo == nil {
		return nil, errors.New("order service: nil repo")
	}
	if beneficiaries == nil {
		return nil, errors.New("order service: nil beneficiary resolver")
	}
	if payers == nil {
		return nil, errors.New("order service: nil payer provider")
	}
	if renderer == nil {
		return nil, errors.New("order service: nil advice renderer")
	}
	if clock == nil {
		return nil, errors.New("order service: nil clock")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OrderService{
		repo:          repo,
		beneficiaries: beneficiaries,
		payers:        payers,
		bordereaux:    bordereaux,
		renderer:      renderer,
		cfg:           cfg,
		clock:         clock,
		logger:        logger,
	}, nil
}

// Build validates a submission and materializes an order. All-or-nothing:
// any bad row rejects the whole submission with the full row error list and
// nothing is persisted.
func (s *OrderService) Build(ctx context.Context, preparerID string, input BuildInput) (*virement.TransferOrder, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveBuild(result, s.clock.Now().Sub(start))
	}()

	if preparerID == "" {
		result = metrics.ResultError
		return nil, errors.New("order service: preparer required")
	}
	if len(input.Rows) == 0 {
		result = metrics.ResultError
		return nil, errors.New("order service: no rows")
	}

	profile, err := s.payers.GetByID(ctx, input.PayerProfileID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if profile == nil {
		result = metrics.ResultError
		return nil, payer.ErrNotFound
	}
	if !profile.Active() {
		result = metrics.ResultError
		return nil, payer.ErrInactive
	}

	clientID := input.ClientID
	bordereauRef := ""
	if input.BordereauID != "" {
		if s.bordereaux == nil {
			result = metrics.ResultError
			return nil, errors.New("order service: no bordereau provider")
		}
		batch, err := s.bordereaux.GetByID(ctx, input.BordereauID)
		if err != nil {
			result = metrics.ResultError
			return nil, err
		}
		if batch == nil {
			result = metrics.ResultError
			return nil, bordereau.ErrNotFound
		}
		clientID = batch.ClientID
		bordereauRef = batch.Reference
	}
	if clientID == "" {
		result = metrics.ResultError
		return nil, errors.New("order service: client scope required")
	}

	now := s.clock.Now().UTC()
	valueDate := input.ValueDate
	if valueDate.IsZero() {
		valueDate = now.AddDate(0, 0, s.cfg.ValueDateOffsetDays)
	}

	lines, rowErrors, err := s.resolveRows(ctx, clientID, input.Rows)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if len(rowErrors) > 0 {
		result = metrics.ResultError
		return nil, &virement.ValidationInputError{Rows: rowErrors}
	}

	var total amount.Amount
	for _, line := range lines {
		total += line.Amount
	}

	order := &virement.TransferOrder{
		ID:               virement.NewOrderID(),
		ClientID:         clientID,
		PayerProfileID:   profile.ID,
		BordereauID:      input.BordereauID,
		BordereauRef:     bordereauRef,
		PreparerID:       preparerID,
		ValidationStatus: virement.ValidationPending,
		ExecutionStatus:  virement.ExecutionNotExecuted,
		TotalAmount:      total,
		BeneficiaryCount: len(lines),
		ValueDate:        valueDate,
		CreatedAt:        now,
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	created := virement.NewHistoryEntry(order.ID, preparerID, virement.ActionCreated, "", virement.ExecutionNotExecuted, "", now)

	if err := s.repo.CreateOrder(ctx, order, lines, created); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("order service: create: %w", err)
	}
	return order, nil
}

func (s *OrderService) resolveRows(ctx context.Context, clientID string, rows []BuildRow) ([]virement.TransferLine, []virement.RowError, error) {
	var rowErrors []virement.RowError
	lines := make([]virement.TransferLine, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		if _, dup := seen[row.Matricule]; dup {
			rowErrors = append(rowErrors, virement.RowError{Row: rowNum, Matricule: row.Matricule, Reason: virement.ReasonDuplicateMatricule})
			continue
		}
		seen[row.Matricule] = struct{}{}

		if !row.Amount.Positive() {
			rowErrors = append(rowErrors, virement.RowError{Row: rowNum, Matricule: row.Matricule, Reason: virement.ReasonNonPositiveAmount})
		}

		resolved, err := s.beneficiaries.FindByMatricule(ctx, clientID, row.Matricule)
		if err != nil {
			return nil, nil, err
		}
		if resolved == nil {
			rowErrors = append(rowErrors, virement.RowError{Row: rowNum, Matricule: row.Matricule, Reason: virement.ReasonUnknownMatricule})
			continue
		}
		if !resolved.Active() {
			rowErrors = append(rowErrors, virement.RowError{Row: rowNum, Matricule: row.Matricule, Reason: virement.ReasonInactiveBeneficiary})
			continue
		}
		if err := beneficiary.ValidateRIB(resolved.RIB); err != nil {
			rowErrors = append(rowErrors, virement.RowError{Row: rowNum, Matricule: row.Matricule, Reason: virement.ReasonInvalidRIB})
			continue
		}

		lines = append(lines, virement.TransferLine{
			ID:              virement.NewLineID(),
			BeneficiaryID:   resolved.ID,
			Matricule:       resolved.Matricule,
			BeneficiaryName: resolved.Name,
			RIB:             resolved.RIB,
			Amount:          row.Amount,
			Status:          virement.LineValid,
		})
	}
	return lines, rowErrors, nil
}

// Get returns an order with its lines and history.
func (s *OrderService) Get(ctx context.Context, id string) (*virement.TransferOrder, []virement.TransferLine, []virement.TransferHistoryEntry, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if order == nil {
		return nil, nil, nil, virement.ErrOrderNotFound
	}
	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return order, lines, history, nil
}

// List returns orders filtered by year and execution status.
func (s *OrderService) List(ctx context.Context, year int, executionStatus string) ([]virement.TransferOrder, error) {
	if executionStatus != "" && !virement.IsExecutionStatus(executionStatus) {
		return nil, errors.New("order service: unknown execution status")
	}
	return s.repo.List(ctx, year, executionStatus)
}

// Validate approves a pending order. The approver must differ from the
// preparer; a decided order cannot be decided again.
func (s *OrderService) Validate(ctx context.Context, orderID, approverID string) (*virement.TransferOrder, error) {
	return s.decideValidation(ctx, orderID, approverID, virement.ValidationApproved, "")
}

// RejectValidation rejects a pending order with a reason. The order becomes
// a dead end: it may never enter the execution lifecycle.
func (s *OrderService) RejectValidation(ctx context.Context, orderID, approverID, reason string) (*virement.TransferOrder, error) {
	if reason == "" {
		return nil, errors.New("order service: rejection reason required")
	}
	return s.decideValidation(ctx, orderID, approverID, virement.ValidationRejected, reason)
}

func (s *OrderService) decideValidation(ctx context.Context, orderID, approverID, target, reason string) (*virement.TransferOrder, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncTransition("validation."+target, result)
	}()

	if approverID == "" {
		result = metrics.ResultError
		return nil, errors.New("order service: approver required")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if order == nil {
		result = metrics.ResultError
		return nil, virement.ErrOrderNotFound
	}
	if !virement.CanTransitionValidation(order.ValidationStatus, target) {
		result = metrics.ResultError
		return nil, virement.ErrIllegalTransition
	}
	if approverID == order.PreparerID {
		result = metrics.ResultError
		return nil, virement.ErrSelfApproval
	}

	now := s.clock.Now().UTC()
	entry := virement.NewHistoryEntry(order.ID, approverID, target, order.ValidationStatus, target, reason, now)
	if err := s.repo.CASValidation(ctx, order.ID, order.ValidationStatus, target, approverID, reason, now, entry); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	order.ValidationStatus = target
	order.ApproverID = approverID
	order.ValidationReason = reason
	order.ValidatedAt = now
	return order, nil
}

// ReportExecution records a bank-side lifecycle change. The target must be
// reachable from the current execution status; transitions out of
// NON_EXECUTED additionally require the validation gate to have passed.
// Rejected orders are terminal: a corrected retry is a new order.
func (s *OrderService) ReportExecution(ctx context.Context, orderID, actorID, target, motif string, rejections []virement.LineRejection) (*virement.TransferOrder, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncTransition("execution."+target, result)
	}()

	if actorID == "" {
		result = metrics.ResultError
		return nil, errors.New("order service: actor required")
	}
	if !virement.IsExecutionStatus(target) {
		result = metrics.ResultError
		return nil, errors.New("order service: unknown execution status")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if order == nil {
		result = metrics.ResultError
		return nil, virement.ErrOrderNotFound
	}
	if !virement.CanTransitionExecution(order.ExecutionStatus, target) {
		result = metrics.ResultError
		return nil, virement.ErrIllegalTransition
	}
	if order.ExecutionStatus == virement.ExecutionNotExecuted && order.ValidationStatus != virement.ValidationApproved {
		result = metrics.ResultError
		return nil, virement.ErrNotValidated
	}
	if virement.MotifRequired(target) && motif == "" {
		result = metrics.ResultError
		return nil, virement.ErrMotifRequired
	}
	if target == virement.ExecutionPartial && len(rejections) == 0 {
		result = metrics.ResultError
		return nil, errors.New("order service: partial execution needs rejected lines")
	}
	if target != virement.ExecutionPartial && len(rejections) > 0 {
		result = metrics.ResultError
		return nil, errors.New("order service: rejected lines only valid for partial execution")
	}
	if len(rejections) > 0 {
		if err := s.checkRejections(ctx, order.ID, rejections); err != nil {
			result = metrics.ResultError
			return nil, err
		}
	}

	now := s.clock.Now().UTC()
	var executedAt time.Time
	if target == virement.ExecutionExecuted || target == virement.ExecutionPartial {
		executedAt = now
	}
	entry := virement.NewHistoryEntry(order.ID, actorID, target, order.ExecutionStatus, target, motif, now)
	if err := s.repo.CASExecution(ctx, order.ID, order.ExecutionStatus, target, motif, executedAt, rejections, entry); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	order.ExecutionStatus = target
	order.Motif = motif
	order.ExecutedAt = executedAt

	if target == virement.ExecutionExecuted && order.BordereauID != "" && s.bordereaux != nil {
		// One-way notification; a failure here never rolls back the order.
		if err := s.bordereaux.MarkClosed(ctx, order.BordereauID, now); err != nil {
			s.logger.Printf("bordereau close failed: order=%s bordereau=%s err=%v", order.Reference, order.BordereauID, err)
		}
	}
	return order, nil
}

func (s *OrderService) checkRejections(ctx context.Context, orderID string, rejections []virement.LineRejection) error {
	lines, err := s.repo.ListLines(ctx, orderID)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		known[line.ID] = struct{}{}
	}
	if len(rejections) >= len(lines) {
		return errors.New("order service: partial execution cannot reject every line")
	}
	seen := make(map[string]struct{}, len(rejections))
	for _, rejection := range rejections {
		if rejection.Reason == "" {
			return errors.New("order service: line rejection reason required")
		}
		if _, ok := known[rejection.LineID]; !ok {
			return fmt.Errorf("order service: unknown line %s", rejection.LineID)
		}
		if _, dup := seen[rejection.LineID]; dup {
			return fmt.Errorf("order service: duplicate line %s", rejection.LineID)
		}
		seen[rejection.LineID] = struct{}{}
	}
	return nil
}

// RequestRecovery records a request for funds back from the bank. Only
// meaningful once the bank touched the order (any terminal execution state).
func (s *OrderService) RequestRecovery(ctx context.Context, orderID, actorID, comment string) (*virement.TransferOrder, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncRecovery("request", result)
	}()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if order == nil {
		result = metrics.ResultError
		return nil, virement.ErrOrderNotFound
	}
	if !virement.RecoveryRequestable(order.ExecutionStatus) || order.RecoveryRequested {
		result = metrics.ResultError
		return nil, virement.ErrIllegalTransition
	}

	now := s.clock.Now().UTC()
	entry := virement.NewHistoryEntry(order.ID, actorID, virement.ActionRecoveryRequested, order.ExecutionStatus, order.ExecutionStatus, comment, now)
	if err := s.repo.CASRecovery(ctx, order.ID, false, now, entry); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	order.RecoveryRequested = true
	order.RecoveryRequestedAt = now
	return order, nil
}

// ConfirmRecovery records that requested funds came back.
func (s *OrderService) ConfirmRecovery(ctx context.Context, orderID, actorID, comment string) (*virement.TransferOrder, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncRecovery("confirm", result)
	}()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if order == nil {
		result = metrics.ResultError
		return nil, virement.ErrOrderNotFound
	}
	if !order.RecoveryRequested || order.RecoveryConfirmed {
		result = metrics.ResultError
		return nil, virement.ErrIllegalTransition
	}

	now := s.clock.Now().UTC()
	entry := virement.NewHistoryEntry(order.ID, actorID, virement.ActionRecoveryConfirmed, order.ExecutionStatus, order.ExecutionStatus, comment, now)
	if err := s.repo.CASRecovery(ctx, order.ID, true, now, entry); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	order.RecoveryConfirmed = true
	order.RecoveryConfirmedAt = now
	return order, nil
}

// GenerateFiles renders the advice document and the fixed-width bank file
// and stores them under the configured root. Generation is a pure function
// of the order and its lines, so regenerating an untouched order rewrites
// identical bytes; it is refused once the order left NON_EXECUTED.
func (s *OrderService) GenerateFiles(ctx context.Context, orderID string) (advicePath, bankPath string, err error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFiles(result, s.clock.Now().Sub(start))
	}()

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	if order == nil {
		result = metrics.ResultError
		return "", "", virement.ErrOrderNotFound
	}
	if order.ExecutionStatus != virement.ExecutionNotExecuted {
		result = metrics.ResultError
		return "", "", virement.ErrRegenerationLocked
	}
	lines, err := s.repo.ListLines(ctx, orderID)
	if err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	profile, err := s.payers.GetByID(ctx, order.PayerProfileID)
	if err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	if profile == nil {
		result = metrics.ResultError
		return "", "", payer.ErrNotFound
	}
	layout, ok := bankfile.LayoutByVariant(profile.LayoutVariant)
	if !ok {
		result = metrics.ResultError
		return "", "", fmt.Errorf("%w: %q", virement.ErrUnknownLayout, profile.LayoutVariant)
	}

	description := order.BordereauRef
	if description == "" {
		description = order.Reference
	}
	records := make([]bankfile.Record, 0, len(lines))
	for _, line := range lines {
		records = append(records, bankfile.Record{
			Reference:       order.Reference,
			ValueDate:       order.ValueDate,
			Amount:          line.Amount.Millimes(),
			PayerRIB:        profile.RIB,
			BeneficiaryRIB:  line.RIB,
			BeneficiaryName: line.BeneficiaryName,
			Description:     description,
		})
	}
	bankBytes, err := bankfile.Encode(layout, records)
	if err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	adviceBytes, err := s.renderer.RenderAdvice(order, lines, profile)
	if err != nil {
		result = metrics.ResultError
		return "", "", err
	}

	advicePath = order.Reference + ".pdf"
	bankPath = order.Reference + ".txt"
	if err := s.writeDocument(advicePath, adviceBytes); err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	if err := s.writeDocument(bankPath, bankBytes); err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	if err := s.repo.ClaimFiles(ctx, order.ID, advicePath, bankPath); err != nil {
		result = metrics.ResultError
		return "", "", err
	}
	return advicePath, bankPath, nil
}

// DocumentPath resolves a stored relative document path under the root.
func (s *OrderService) DocumentPath(relative string) string {
	return filepath.Join(s.cfg.StorageRoot, filepath.FromSlash(relative))
}

func (s *OrderService) writeDocument(relative string, data []byte) error {
	full := s.DocumentPath(relative)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}
