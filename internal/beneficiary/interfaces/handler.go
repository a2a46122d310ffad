package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"virement-backoffice/internal/audit"
	"virement-backoffice/internal/auth"
	"virement-backoffice/internal/beneficiary/application"
	beneficiary "virement-backoffice/internal/beneficiary/domain"
)

// Handler handles beneficiary registry APIs under /api/v1/beneficiaires.
type Handler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("beneficiary handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes beneficiary requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/beneficiaires" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if path == "/api/v1/beneficiaires/import" && r.Method == http.MethodPost {
		h.handleImport(w, r)
		return
	}
	if path == "/api/v1/beneficiaires/export.xlsx" && r.Method == http.MethodGet {
		h.handleExport(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/beneficiaires/") && strings.HasSuffix(path, "/status") && r.Method == http.MethodPost {
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/beneficiaires/"), "/status")
		h.handleSetStatus(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	items, err := h.service.List(r.Context(), clientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	clientID := r.FormValue("client_id")
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := ParseRegistryXLSX(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rowErrors, err := h.service.Import(r.Context(), clientID, rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(rowErrors) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": rowErrors})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"imported": len(rows)})
	h.logAudit(r, "beneficiary.import", clientID, map[string]any{"rows": len(rows)})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	items, err := h.service.List(r.Context(), clientID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := BuildRegistryXLSX(items)
	if err != nil {
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, beneficiary.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": req.Status})
	h.logAudit(r, "beneficiary.status", id, map[string]any{"status": req.Status})
}

func (h *Handler) logAudit(r *http.Request, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.ActorIDFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "beneficiary",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
