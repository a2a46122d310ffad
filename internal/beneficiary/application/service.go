package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	beneficiary "virement-backoffice/internal/beneficiary/domain"
	beneficiaryrepo "virement-backoffice/internal/beneficiary/infrastructure/postgres"
	"virement-backoffice/internal/observability/metrics"
)

// ImportRow is one parsed row of an administrative registry import.
type ImportRow struct {
	Matricule    string
	Name         string
	RIB          string
	ContractCode string
}

// ImportError describes a rejected import row.
type ImportError struct {
	Row       int    `json:"row"`
	Matricule string `json:"matricule"`
	Reason    string `json:"reason"`
}

// Service handles beneficiary registry workflows.
type Service struct {
	repo *beneficiaryrepo.Repository
}

// NewService constructs a service.
func NewService(repo *beneficiaryrepo.Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("beneficiary service: nil repo")
	}
	return &Service{repo: repo}, nil
}

// Import validates and inserts registry rows for a client. All-or-nothing:
// any bad row rejects the whole batch with the full error list.
func (s *Service) Import(ctx context.Context, clientID string, rows []ImportRow) ([]ImportError, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncBeneficiaryImport(result)
	}()

	if clientID == "" {
		result = metrics.ResultError
		return nil, errors.New("beneficiary service: client_id required")
	}
	if len(rows) == 0 {
		result = metrics.ResultError
		return nil, errors.New("beneficiary service: empty import")
	}

	var rowErrors []ImportError
	seen := make(map[string]struct{}, len(rows))
	for i, row := range rows {
		rowNum := i + 1
		if row.Matricule == "" {
			rowErrors = append(rowErrors, ImportError{Row: rowNum, Reason: "EMPTY_MATRICULE"})
			continue
		}
		if _, dup := seen[row.Matricule]; dup {
			rowErrors = append(rowErrors, ImportError{Row: rowNum, Matricule: row.Matricule, Reason: "DUPLICATE_MATRICULE"})
			continue
		}
		seen[row.Matricule] = struct{}{}
		if row.Name == "" {
			rowErrors = append(rowErrors, ImportError{Row: rowNum, Matricule: row.Matricule, Reason: "EMPTY_NAME"})
		}
		if err := beneficiary.ValidateRIB(row.RIB); err != nil {
			rowErrors = append(rowErrors, ImportError{Row: rowNum, Matricule: row.Matricule, Reason: "INVALID_RIB"})
		}
	}
	if len(rowErrors) > 0 {
		result = metrics.ResultError
		return rowErrors, nil
	}

	now := time.Now().UTC()
	items := make([]beneficiary.Beneficiary, 0, len(rows))
	for _, row := range rows {
		items = append(items, beneficiary.Beneficiary{
			ID:           beneficiary.NewID(),
			ClientID:     clientID,
			Matricule:    row.Matricule,
			Name:         row.Name,
			RIB:          row.RIB,
			ContractCode: row.ContractCode,
			Status:       beneficiary.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := s.repo.CreateBatch(ctx, items); err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("beneficiary service: import: %w", err)
	}
	return nil, nil
}

// List returns all beneficiaries of a client.
func (s *Service) List(ctx context.Context, clientID string) ([]beneficiary.Beneficiary, error) {
	if clientID == "" {
		return nil, errors.New("beneficiary service: client_id required")
	}
	return s.repo.ListByClient(ctx, clientID)
}

// SetStatus activates or deactivates a beneficiary.
func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	if status != beneficiary.StatusActive && status != beneficiary.StatusInactive {
		return errors.New("beneficiary service: invalid status")
	}
	return s.repo.SetStatus(ctx, id, status, time.Now().UTC())
}
