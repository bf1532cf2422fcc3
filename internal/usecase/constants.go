package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a balance-changing operation,
	// retries included. It keeps a stuck lock holder from blocking other callers forever.
	DefaultTransactionTimeout = 10 * time.Second

	// Operation names used for metrics and logs.
	OperationDeposit  = "deposit"
	OperationWithdraw = "withdraw"
	OperationTransfer = "transfer"
)
