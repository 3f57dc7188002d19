package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	ApplyCredit(ctx context.Context, input usecase.ApplyCreditInput) (*domain.CreditResult, error)
	ApplyDebit(ctx context.Context, input usecase.ApplyDebitInput) (*domain.DebitResult, error)
	GetBalance(ctx context.Context, principal *domain.Principal, customerID string) (domain.Balance, error)
	GetDebitHistory(ctx context.Context, principal *domain.Principal, customerID string) ([]domain.DebitLineItem, error)
	GetCreditHistory(ctx context.Context, principal *domain.Principal, customerID string) ([]domain.CreditLineItem, error)
}

// LedgerHandler handles customer ledger HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Credit applies a credit to the customer's ledger. A replayed transaction
// returns 200 with duplicate set; a new one returns 201.
func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	result, err := h.ledgerUC.ApplyCredit(r.Context(), req.ToUseCaseInput(principal, chi.URLParam(r, "customerID")))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply credit", err.Error())
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.CreditResultFromDomain(result))
}

// Debit applies a debit to the customer's ledger.
func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var req dto.DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	principal := middleware.GetPrincipalFromContext(r.Context())
	result, err := h.ledgerUC.ApplyDebit(r.Context(), req.ToUseCaseInput(principal, chi.URLParam(r, "customerID")))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply debit", err.Error())
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, dto.DebitResultFromDomain(result))
}

// Balance returns the customer's current balance.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())

	balance, err := h.ledgerUC.GetBalance(r.Context(), principal, chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}

// DebitHistory lists the debit fragments applied to the customer, oldest
// first.
func (h *LedgerHandler) DebitHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)
	principal := middleware.GetPrincipalFromContext(r.Context())

	items, err := h.ledgerUC.GetDebitHistory(r.Context(), principal, chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get debit history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DebitLineItemsFromDomain(paginate(items, limit, offset)))
}

// CreditHistory lists every credit applied to the customer, including fully
// consumed ones.
func (h *LedgerHandler) CreditHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 0)
	offset := parseIntQuery(r, "offset", 0)
	principal := middleware.GetPrincipalFromContext(r.Context())

	items, err := h.ledgerUC.GetCreditHistory(r.Context(), principal, chi.URLParam(r, "customerID"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get credit history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CreditLineItemsFromDomain(paginate(items, limit, offset)))
}
