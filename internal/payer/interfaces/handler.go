package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"virement-backoffice/internal/audit"
	"virement-backoffice/internal/auth"
	"virement-backoffice/internal/bankfile"
	payer "virement-backoffice/internal/payer/domain"
	payerrepo "virement-backoffice/internal/payer/infrastructure/postgres"
)

// Handler handles payer profile APIs under /api/v1/donneurs.
type Handler struct {
	repo        *payerrepo.Repository
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(repo *payerrepo.Repository, auditLogger audit.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("payer handler: nil repo")
	}
	return &Handler{repo: repo, auditLogger: auditLogger}, nil
}

// ServeHTTP routes payer profile requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/donneurs" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
			return
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/donneurs/") && strings.HasSuffix(path, "/deactivate") && r.Method == http.MethodPost {
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/donneurs/"), "/deactivate")
		h.handleDeactivate(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListActive(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		RIB           string `json:"rib"`
		BankName      string `json:"bank_name"`
		Branch        string `json:"branch"`
		LayoutVariant string `json:"layout_variant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.RIB == "" || req.BankName == "" {
		http.Error(w, "name, rib and bank_name required", http.StatusBadRequest)
		return
	}
	if _, ok := bankfile.LayoutByVariant(req.LayoutVariant); !ok {
		http.Error(w, "unknown layout variant", http.StatusBadRequest)
		return
	}
	now := time.Now().UTC()
	profile := &payer.Profile{
		ID:            payer.NewID(),
		Name:          req.Name,
		RIB:           req.RIB,
		BankName:      req.BankName,
		Branch:        req.Branch,
		LayoutVariant: req.LayoutVariant,
		Status:        payer.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.repo.Create(r.Context(), profile); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profile)
	h.logAudit(r, "payer.create", profile.ID, map[string]any{"layout_variant": profile.LayoutVariant})
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Deactivate(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, payer.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "status": payer.StatusInactive})
	h.logAudit(r, "payer.deactivate", id, nil)
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
		ResourceType: "payer_profile",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
