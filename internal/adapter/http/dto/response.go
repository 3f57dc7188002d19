package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// MoneyResponse represents money in API responses. Amounts are decimal strings.
type MoneyResponse struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MoneyFromDomain converts domain money to response.
func MoneyFromDomain(m domain.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount, Currency: m.Currency}
}

// CategoryBalanceResponse lists the open entries of one credit category.
type CategoryBalanceResponse struct {
	CreditType string          `json:"credit_type"`
	Total      decimal.Decimal `json:"total"`
	Entries    []MoneyResponse `json:"entries"`
}

// BalanceResponse represents a customer balance in API responses.
type BalanceResponse struct {
	CustomerID string                    `json:"customer_id"`
	Total      MoneyResponse             `json:"total"`
	Categories []CategoryBalanceResponse `json:"categories"`
	Sequence   uint64                    `json:"sequence"`
}

// BalanceFromDomain converts a domain balance to response. Categories are
// listed in consumption order.
func BalanceFromDomain(b domain.Balance) *BalanceResponse {
	resp := &BalanceResponse{
		CustomerID: b.CustomerID,
		Total:      MoneyFromDomain(b.Total),
		Categories: make([]CategoryBalanceResponse, 0, len(b.Amounts)),
		Sequence:   b.Sequence,
	}

	for _, c := range b.Categories() {
		entries := make([]MoneyResponse, len(b.Amounts[c]))
		for i, m := range b.Amounts[c] {
			entries[i] = MoneyFromDomain(m)
		}
		resp.Categories = append(resp.Categories, CategoryBalanceResponse{
			CreditType: string(c),
			Total:      b.CategoryTotal(c),
			Entries:    entries,
		})
	}

	return resp
}

// CreditLineItemResponse represents a credit entry in API responses.
type CreditLineItemResponse struct {
	TransactionID     string          `json:"transaction_id"`
	CreditType        string          `json:"credit_type"`
	Remaining         MoneyResponse   `json:"remaining"`
	InitialAmount     decimal.Decimal `json:"initial_amount"`
	AppliedInvoiceIDs []string        `json:"applied_invoice_ids"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CreditLineItemFromDomain converts a domain credit entry to response.
func CreditLineItemFromDomain(c domain.CreditLineItem) CreditLineItemResponse {
	invoices := c.AppliedInvoiceIDs
	if invoices == nil {
		invoices = []string{}
	}
	return CreditLineItemResponse{
		TransactionID:     c.TransactionID,
		CreditType:        string(c.Category),
		Remaining:         MoneyFromDomain(c.Money),
		InitialAmount:     c.InitialAmount,
		AppliedInvoiceIDs: invoices,
		CreatedAt:         c.CreatedAt,
	}
}

// CreditLineItemsFromDomain converts domain credit entries to responses.
func CreditLineItemsFromDomain(items []domain.CreditLineItem) []CreditLineItemResponse {
	result := make([]CreditLineItemResponse, len(items))
	for i, c := range items {
		result[i] = CreditLineItemFromDomain(c)
	}
	return result
}

// DebitLineItemResponse represents a debit fragment in API responses.
type DebitLineItemResponse struct {
	InvoiceID           string        `json:"invoice_id"`
	Money               MoneyResponse `json:"money"`
	SourceTransactionID string        `json:"source_transaction_id"`
	SourceCreditType    string        `json:"source_credit_type"`
	AppliedAt           time.Time     `json:"applied_at"`
}

// DebitLineItemFromDomain converts a domain debit fragment to response.
func DebitLineItemFromDomain(d domain.DebitLineItem) DebitLineItemResponse {
	return DebitLineItemResponse{
		InvoiceID:           d.InvoiceID,
		Money:               MoneyFromDomain(d.Money),
		SourceTransactionID: d.SourceTransactionID,
		SourceCreditType:    string(d.SourceCategory),
		AppliedAt:           d.AppliedAt,
	}
}

// DebitLineItemsFromDomain converts domain debit fragments to responses.
func DebitLineItemsFromDomain(items []domain.DebitLineItem) []DebitLineItemResponse {
	result := make([]DebitLineItemResponse, len(items))
	for i, d := range items {
		result[i] = DebitLineItemFromDomain(d)
	}
	return result
}

// CreditResponse is returned after applying a credit.
type CreditResponse struct {
	Duplicate bool                    `json:"duplicate"`
	Credit    *CreditLineItemResponse `json:"credit,omitempty"`
	Balance   *BalanceResponse        `json:"balance"`
}

// CreditResultFromDomain converts a credit result to response.
func CreditResultFromDomain(r *domain.CreditResult) *CreditResponse {
	resp := &CreditResponse{
		Duplicate: r.Duplicate,
		Balance:   BalanceFromDomain(r.Balance),
	}
	if !r.Duplicate {
		item := CreditLineItemFromDomain(r.LineItem)
		resp.Credit = &item
	}
	return resp
}

// DebitResponse is returned after applying a debit.
type DebitResponse struct {
	Duplicate bool                    `json:"duplicate"`
	LineItems []DebitLineItemResponse `json:"line_items"`
	Balance   *BalanceResponse        `json:"balance"`
}

// DebitResultFromDomain converts a debit result to response.
func DebitResultFromDomain(r *domain.DebitResult) *DebitResponse {
	return &DebitResponse{
		Duplicate: r.Duplicate,
		LineItems: DebitLineItemsFromDomain(r.LineItems),
		Balance:   BalanceFromDomain(r.Balance),
	}
}

// ReconciliationResponse represents one ledger's reconciliation result.
type ReconciliationResponse struct {
	CustomerID    string          `json:"customer_id"`
	Currency      string          `json:"currency"`
	RecordedTotal decimal.Decimal `json:"recorded_total"`
	OpenTotal     decimal.Decimal `json:"open_total"`
	CreditedTotal decimal.Decimal `json:"credited_total"`
	DebitedTotal  decimal.Decimal `json:"debited_total"`
	Difference    decimal.Decimal `json:"difference"`
	OpenEntries   int             `json:"open_entries"`
	Consistent    bool            `json:"consistent"`
}

// ReconciliationFromDomain converts a reconciliation result to response.
func ReconciliationFromDomain(r domain.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		CustomerID:    r.CustomerID,
		Currency:      r.Currency,
		RecordedTotal: r.RecordedTotal,
		OpenTotal:     r.OpenTotal,
		CreditedTotal: r.CreditedTotal,
		DebitedTotal:  r.DebitedTotal,
		Difference:    r.Difference(),
		OpenEntries:   r.OpenEntries,
		Consistent:    r.Consistent,
	}
}

// ConsistencyReportResponse represents a full reconciliation run.
type ConsistencyReportResponse struct {
	TotalLedgers      int                      `json:"total_ledgers"`
	ConsistentLedgers int                      `json:"consistent_ledgers"`
	LedgerConsistent  bool                     `json:"ledger_consistent"`
	Discrepancies     []ReconciliationResponse `json:"discrepancies"`
	CheckedAt         time.Time                `json:"checked_at"`
}

// ConsistencyReportFromUseCase converts a reconciliation report to response.
func ConsistencyReportFromUseCase(r *usecase.ReconciliationReport) *ConsistencyReportResponse {
	discrepancies := make([]ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromDomain(d)
	}
	return &ConsistencyReportResponse{
		TotalLedgers:      r.TotalLedgers,
		ConsistentLedgers: r.ConsistentLedgers,
		LedgerConsistent:  r.LedgerConsistent,
		Discrepancies:     discrepancies,
		CheckedAt:         r.CheckedAt,
	}
}

// TokenRequest asks for a bearer token for a principal.
type TokenRequest struct {
	Subject    string `json:"subject"`
	Role       string `json:"role"`
	CustomerID string `json:"customer_id,omitempty"`
}

// TokenResponse is returned by the token endpoint.
type TokenResponse struct {
	Token      string `json:"token"`
	Subject    string `json:"subject"`
	Role       string `json:"role"`
	CustomerID string `json:"customer_id,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
