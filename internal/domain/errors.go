package domain

import (
	"errors"
	"fmt"
)

var (
	// Ledger errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCurrencyMismatch    = errors.New("currency does not match ledger currency")

	// Input errors. All of them match ErrInvalidInput with errors.Is.
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCategory = fmt.Errorf("%w: unknown credit category", ErrInvalidInput)
	ErrInvalidCurrency = fmt.Errorf("%w: invalid currency code", ErrInvalidInput)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	ErrMissingID       = fmt.Errorf("%w: identifier is required", ErrInvalidInput)

	// Access errors
	ErrForbidden    = errors.New("access to customer ledger denied")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
