package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"virement-backoffice/internal/amount"
	"virement-backoffice/internal/audit"
	"virement-backoffice/internal/auth"
	bordereau "virement-backoffice/internal/bordereau/domain"
	payer "virement-backoffice/internal/payer/domain"
	"virement-backoffice/internal/virement/application"
	virement "virement-backoffice/internal/virement/domain"
)

// OrderHandler handles transfer order APIs under /api/v1/virements.
type OrderHandler struct {
	service     *application.OrderService
	auditLogger audit.Logger
}

// NewOrderHandler constructs a handler.
func NewOrderHandler(service *application.OrderService, auditLogger audit.Logger) (*OrderHandler, error) {
	if service == nil {
		return nil, errors.New("order handler: nil service")
	}
	return &OrderHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes transfer order requests.
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/virements" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleBuild(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/virements/import" && r.Method == http.MethodPost {
		h.handleImport(w, r)
		return
	}
	rest := strings.TrimPrefix(path, "/api/v1/virements/")
	if rest == path {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case action == "history" && r.Method == http.MethodGet:
		h.handleHistory(w, r, id)
	case action == "validate" && r.Method == http.MethodPost:
		h.handleValidate(w, r, id)
	case action == "reject" && r.Method == http.MethodPost:
		h.handleReject(w, r, id)
	case action == "execution" && r.Method == http.MethodPost:
		h.handleExecution(w, r, id)
	case action == "recovery/request" && r.Method == http.MethodPost:
		h.handleRecovery(w, r, id, false)
	case action == "recovery/confirm" && r.Method == http.MethodPost:
		h.handleRecovery(w, r, id, true)
	case action == "files" && r.Method == http.MethodPost:
		h.handleGenerateFiles(w, r, id)
	case action == "advice.pdf" && r.Method == http.MethodGet:
		h.handleDocument(w, r, id, "advice")
	case action == "bankfile.txt" && r.Method == http.MethodGet:
		h.handleDocument(w, r, id, "bankfile")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type buildRowRequest struct {
	Matricule string `json:"matricule"`
	Amount    string `json:"amount"`
}

type buildRequest struct {
	PayerProfileID string            `json:"payer_profile_id"`
	BordereauID    string            `json:"bordereau_id"`
	ClientID       string            `json:"client_id"`
	ValueDate      string            `json:"value_date"`
	Rows           []buildRowRequest `json:"rows"`
}

func (h *OrderHandler) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	input, err := h.buildInput(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.service.Build(r.Context(), auth.ActorIDFromContext(r.Context()), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, "virement.build", order.Reference, map[string]any{"total": order.TotalAmount.String(), "lines": order.BeneficiaryCount})
}

func (h *OrderHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := ParseOrderRowsXLSX(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := application.BuildInput{
		PayerProfileID: r.FormValue("payer_profile_id"),
		BordereauID:    r.FormValue("bordereau_id"),
		ClientID:       r.FormValue("client_id"),
		Rows:           rows,
	}
	if raw := r.FormValue("value_date"); raw != "" {
		valueDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid value_date", http.StatusBadRequest)
			return
		}
		input.ValueDate = valueDate
	}
	order, err := h.service.Build(r.Context(), auth.ActorIDFromContext(r.Context()), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, "virement.import", order.Reference, map[string]any{"total": order.TotalAmount.String(), "lines": order.BeneficiaryCount})
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	orders, err := h.service.List(r.Context(), year, r.URL.Query().Get("execution_status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	views := make([]map[string]any, 0, len(orders))
	for i := range orders {
		views = append(views, orderView(&orders[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": views})
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	order, lines, history, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	view := orderView(order)
	view["transferred_amount"] = virement.TransferredAmount(lines).String()
	view["lines"] = lineViews(lines)
	view["history"] = historyViews(history)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *OrderHandler) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	_, _, history, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": historyViews(history)})
}

func (h *OrderHandler) handleValidate(w http.ResponseWriter, r *http.Request, id string) {
	order, err := h.service.Validate(r.Context(), id, auth.ActorIDFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, "virement.validate", order.Reference, nil)
}

func (h *OrderHandler) handleReject(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	order, err := h.service.RejectValidation(r.Context(), id, auth.ActorIDFromContext(r.Context()), req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, "virement.reject", order.Reference, map[string]any{"reason": req.Reason})
}

func (h *OrderHandler) handleExecution(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Target     string `json:"target"`
		Motif      string `json:"motif"`
		Rejections []struct {
			LineID string `json:"line_id"`
			Reason string `json:"reason"`
		} `json:"rejections"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	rejections := make([]virement.LineRejection, 0, len(req.Rejections))
	for _, rejection := range req.Rejections {
		rejections = append(rejections, virement.LineRejection{LineID: rejection.LineID, Reason: rejection.Reason})
	}
	order, err := h.service.ReportExecution(r.Context(), id, auth.ActorIDFromContext(r.Context()), req.Target, req.Motif, rejections)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, "virement.execution", order.Reference, map[string]any{"target": req.Target, "motif": req.Motif})
}

func (h *OrderHandler) handleRecovery(w http.ResponseWriter, r *http.Request, id string, confirm bool) {
	var req struct {
		Comment string `json:"comment"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	actorID := auth.ActorIDFromContext(r.Context())
	var order *virement.TransferOrder
	var err error
	action := "virement.recovery.request"
	if confirm {
		order, err = h.service.ConfirmRecovery(r.Context(), id, actorID, req.Comment)
		action = "virement.recovery.confirm"
	} else {
		order, err = h.service.RequestRecovery(r.Context(), id, actorID, req.Comment)
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orderView(order))
	h.logAudit(r, action, order.Reference, map[string]any{"comment": req.Comment})
}

func (h *OrderHandler) handleGenerateFiles(w http.ResponseWriter, r *http.Request, id string) {
	advicePath, bankPath, err := h.service.GenerateFiles(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"advice_doc_path": advicePath, "bank_file_path": bankPath})
	h.logAudit(r, "virement.files", id, map[string]any{"advice": advicePath, "bank": bankPath})
}

func (h *OrderHandler) handleDocument(w http.ResponseWriter, r *http.Request, id, kind string) {
	order, _, _, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	relative := order.AdviceDocPath
	contentType := "application/pdf"
	if kind == "bankfile" {
		relative = order.BankFilePath
		contentType = "text/plain; charset=utf-8"
	}
	if relative == "" {
		http.Error(w, "documents not generated", http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(h.service.DocumentPath(relative))
	if err != nil {
		http.Error(w, "document unavailable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *OrderHandler) respondServiceError(w http.ResponseWriter, err error) {
	if rowErrs, ok := virement.AsValidationInputError(err); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": rowErrs.Rows})
		return
	}
	switch {
	case errors.Is(err, virement.ErrOrderNotFound),
		errors.Is(err, payer.ErrNotFound),
		errors.Is(err, bordereau.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, virement.ErrIllegalTransition),
		errors.Is(err, virement.ErrConcurrentModification),
		errors.Is(err, virement.ErrSelfApproval),
		errors.Is(err, virement.ErrNotValidated),
		errors.Is(err, virement.ErrRegenerationLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, virement.ErrMotifRequired),
		errors.Is(err, virement.ErrUnknownLayout),
		errors.Is(err, payer.ErrInactive),
		errors.Is(err, amount.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *OrderHandler) buildInput(req buildRequest) (application.BuildInput, error) {
	input := application.BuildInput{
		PayerProfileID: req.PayerProfileID,
		BordereauID:    req.BordereauID,
		ClientID:       req.ClientID,
	}
	if req.ValueDate != "" {
		valueDate, err := time.Parse("2006-01-02", req.ValueDate)
		if err != nil {
			return input, errors.New("invalid value_date")
		}
		input.ValueDate = valueDate
	}
	for _, row := range req.Rows {
		value, err := amount.Parse(row.Amount)
		if err != nil {
			return input, err
		}
		input.Rows = append(input.Rows, application.BuildRow{Matricule: row.Matricule, Amount: value})
	}
	return input, nil
}

func orderView(order *virement.TransferOrder) map[string]any {
	view := map[string]any{
		"id":                order.ID,
		"reference":         order.Reference,
		"client_id":         order.ClientID,
		"payer_profile_id":  order.PayerProfileID,
		"preparer_id":       order.PreparerID,
		"validation_status": order.ValidationStatus,
		"execution_status":  order.ExecutionStatus,
		"total_amount":      order.TotalAmount.String(),
		"beneficiary_count": order.BeneficiaryCount,
		"value_date":        order.ValueDate.Format("2006-01-02"),
		"created_at":        order.CreatedAt.Format(time.RFC3339),
	}
	if order.BordereauID != "" {
		view["bordereau_id"] = order.BordereauID
		view["bordereau_ref"] = order.BordereauRef
	}
	if order.ApproverID != "" {
		view["approver_id"] = order.ApproverID
	}
	if order.ValidationReason != "" {
		view["validation_reason"] = order.ValidationReason
	}
	if order.Motif != "" {
		view["motif"] = order.Motif
	}
	if !order.ValidatedAt.IsZero() {
		view["validated_at"] = order.ValidatedAt.Format(time.RFC3339)
	}
	if !order.ExecutedAt.IsZero() {
		view["executed_at"] = order.ExecutedAt.Format(time.RFC3339)
	}
	if order.AdviceDocPath != "" {
		view["advice_doc_path"] = order.AdviceDocPath
		view["bank_file_path"] = order.BankFilePath
	}
	if order.RecoveryRequested {
		view["recovery_requested_at"] = order.RecoveryRequestedAt.Format(time.RFC3339)
	}
	if order.RecoveryConfirmed {
		view["recovery_confirmed_at"] = order.RecoveryConfirmedAt.Format(time.RFC3339)
	}
	return view
}

func lineViews(lines []virement.TransferLine) []map[string]any {
	views := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		view := map[string]any{
			"id":        line.ID,
			"matricule": line.Matricule,
			"name":      line.BeneficiaryName,
			"rib":       line.RIB,
			"amount":    line.Amount.String(),
			"status":    line.Status,
		}
		if line.RejectReason != "" {
			view["reject_reason"] = line.RejectReason
		}
		views = append(views, view)
	}
	return views
}

func historyViews(entries []virement.TransferHistoryEntry) []map[string]any {
	views := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		view := map[string]any{
			"id":         entry.ID,
			"actor_id":   entry.ActorID,
			"action":     entry.Action,
			"new_status": entry.NewStatus,
			"created_at": entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.PreviousStatus != "" {
			view["previous_status"] = entry.PreviousStatus
		}
		if entry.Comment != "" {
			view["comment"] = entry.Comment
		}
		views = append(views, view)
	}
	return views
}

func (h *OrderHandler) logAudit(r *http.Request, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.ActorIDFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		Reference:    resourceID,
		ResourceType: "transfer_order",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
