package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// ConsistencyService defines the behavior needed by ConsistencyHandler.
type ConsistencyService interface {
	CheckConsistency(ctx context.Context, principal *domain.Principal) (*usecase.ReconciliationReport, error)
	ReconcileCustomer(ctx context.Context, principal *domain.Principal, customerID string) (domain.Reconciliation, error)
}

// ConsistencyHandler serves ledger reconciliation reports.
type ConsistencyHandler struct {
	reconciliationUC ConsistencyService
}

// NewConsistencyHandler creates a new ConsistencyHandler.
func NewConsistencyHandler(reconciliationUC ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{reconciliationUC: reconciliationUC}
}

// Check reconciles every ledger.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckConsistency(r.Context(), middleware.GetPrincipalFromContext(r.Context()))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyReportFromUseCase(report))
}

// Customer reconciles one customer's ledger.
func (h *ConsistencyHandler) Customer(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())

	result, err := h.reconciliationUC.ReconcileCustomer(r.Context(), principal, chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reconcile ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromDomain(result))
}
