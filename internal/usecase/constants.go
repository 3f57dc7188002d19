package usecase

import "time"

const (
	// DefaultLockTimeout bounds how long an operation waits for a busy ledger.
	DefaultLockTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)

// Operation outcomes reported to metrics.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Operation names reported to metrics.
const (
	OperationCredit        = "credit"
	OperationDebit         = "debit"
	OperationBalance       = "balance"
	OperationDebitHistory  = "debit_history"
	OperationCreditHistory = "credit_history"
	OperationReconcile     = "reconcile"
)
