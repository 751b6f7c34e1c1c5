package exception

import "errors"

// Business-rule rejections. These are returned to the caller and never retried.
var (
	ErrInsufficientFunds     = errors.New("ledger: insufficient funds")
	ErrInsufficientShares    = errors.New("ledger: insufficient shares")
	ErrInsufficientBalance   = errors.New("ledger: insufficient balance")
	ErrInvalidQuantity       = errors.New("ledger: invalid quantity")
	ErrInvalidAmount         = errors.New("ledger: invalid amount")
	ErrInstrumentUnavailable = errors.New("ledger: instrument unavailable")
	ErrAccountNotFound       = errors.New("ledger: account not found")
	ErrLimitExceeded         = errors.New("ledger: order limit exceeded")
)

// Infrastructure failures.
var (
	ErrPersistenceFailure = errors.New("ledger: persistence failure")
	ErrTimeout            = errors.New("ledger: account lock timeout")
	ErrConcurrentUpdate   = errors.New("ledger: concurrent account update")
)

// ErrInvariantViolation means a mutation would break a ledger invariant. It aborts the
// operation with nothing applied and always indicates a bug.
var ErrInvariantViolation = errors.New("ledger: invariant violation")
