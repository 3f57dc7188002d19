package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
)

// MoneyRequest is an amount in a currency. Amount is a pointer so that an
// omitted amount is told apart from an explicit zero.
type MoneyRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
}

// Validate rejects a request without an amount.
func (m MoneyRequest) Validate() error {
	if m.Amount == nil {
		return fmt.Errorf("%w: money.amount is required", domain.ErrInvalidInput)
	}
	return nil
}

// ToDomain converts the request body into domain money. Call Validate first.
func (m MoneyRequest) ToDomain() domain.Money {
	var amount decimal.Decimal
	if m.Amount != nil {
		amount = *m.Amount
	}
	return domain.NewMoney(amount, m.Currency)
}

// CreditRequest represents a request to credit a customer.
type CreditRequest struct {
	TransactionID string       `json:"transaction_id"`
	CreditType    string       `json:"credit_type"`
	Money         MoneyRequest `json:"money"`
}

// Validate checks the fields the use case cannot tell are missing.
func (r *CreditRequest) Validate() error {
	return r.Money.Validate()
}

// ToUseCaseInput converts request to use case input.
func (r *CreditRequest) ToUseCaseInput(principal *domain.Principal, customerID string) usecase.ApplyCreditInput {
	return usecase.ApplyCreditInput{
		Principal:     principal,
		CustomerID:    customerID,
		TransactionID: r.TransactionID,
		Category:      r.CreditType,
		Money:         r.Money.ToDomain(),
	}
}

// DebitRequest represents a request to debit a customer.
type DebitRequest struct {
	InvoiceID string       `json:"invoice_id"`
	Money     MoneyRequest `json:"money"`
}

// Validate checks the fields the use case cannot tell are missing.
func (r *DebitRequest) Validate() error {
	return r.Money.Validate()
}

// ToUseCaseInput converts request to use case input.
func (r *DebitRequest) ToUseCaseInput(principal *domain.Principal, customerID string) usecase.ApplyDebitInput {
	return usecase.ApplyDebitInput{
		Principal:  principal,
		CustomerID: customerID,
		InvoiceID:  r.InvoiceID,
		Money:      r.Money.ToDomain(),
	}
}
