package domain

import "time"

// Event types
const (
	EventTypeCreditApplied = "credit.applied"
	EventTypeDebitApplied  = "debit.applied"
)

// Aggregate types
const (
	AggregateTypeLedger = "ledger"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// CreditAppliedEvent payload
type CreditAppliedEvent struct {
	CustomerID    string `json:"customer_id"`
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Balance       string `json:"balance"`
	Sequence      uint64 `json:"sequence"`
}

// DebitAppliedEvent payload
type DebitAppliedEvent struct {
	CustomerID string              `json:"customer_id"`
	InvoiceID  string              `json:"invoice_id"`
	Amount     string              `json:"amount"`
	Currency   string              `json:"currency"`
	Balance    string              `json:"balance"`
	Sequence   uint64              `json:"sequence"`
	Sources    []DebitSourcePayload `json:"sources"`
}

// DebitSourcePayload names one credit a debit drew from.
type DebitSourcePayload struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
}

// ToPayload flattens the event for the outbox.
func (e CreditAppliedEvent) ToPayload() map[string]any {
	return map[string]any{
		"customer_id":    e.CustomerID,
		"transaction_id": e.TransactionID,
		"category":       e.Category,
		"amount":         e.Amount,
		"currency":       e.Currency,
		"balance":        e.Balance,
		"sequence":       e.Sequence,
	}
}

// ToPayload flattens the event for the outbox.
func (e DebitAppliedEvent) ToPayload() map[string]any {
	return map[string]any{
		"customer_id": e.CustomerID,
		"invoice_id":  e.InvoiceID,
		"amount":      e.Amount,
		"currency":    e.Currency,
		"balance":     e.Balance,
		"sequence":    e.Sequence,
		"sources":     e.Sources,
	}
}
