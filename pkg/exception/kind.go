package exception

import (
	stderrors "errors"
)

// Kind classifies an error into the ledger's error taxonomy.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInsufficientFunds
	KindInsufficientShares
	KindInsufficientBalance
	KindInvalidQuantity
	KindInvalidAmount
	KindInstrumentUnavailable
	KindAccountNotFound
	KindLimitExceeded
	KindIncompleteAssessment
	KindInvalidAnswer
	KindPersistenceFailure
	KindTimeout
	KindInvariantViolation
)

var kindNames = [...]string{
	KindUnknown:               "Unknown",
	KindInsufficientFunds:     "InsufficientFunds",
	KindInsufficientShares:    "InsufficientShares",
	KindInsufficientBalance:   "InsufficientBalance",
	KindInvalidQuantity:       "InvalidQuantity",
	KindInvalidAmount:         "InvalidAmount",
	KindInstrumentUnavailable: "InstrumentUnavailable",
	KindAccountNotFound:       "AccountNotFound",
	KindLimitExceeded:         "LimitExceeded",
	KindIncompleteAssessment:  "IncompleteAssessment",
	KindInvalidAnswer:         "InvalidAnswer",
	KindPersistenceFailure:    "PersistenceFailure",
	KindTimeout:               "Timeout",
	KindInvariantViolation:    "InvariantViolation",
}

var kindMessages = [...]string{
	KindUnknown:               "Something went wrong. Please try again.",
	KindInsufficientFunds:     "Not enough cash to complete this purchase.",
	KindInsufficientShares:    "You do not own enough shares to sell.",
	KindInsufficientBalance:   "Not enough balance for this transfer.",
	KindInvalidQuantity:       "Quantity must be a positive whole number.",
	KindInvalidAmount:         "Amount must be greater than zero.",
	KindInstrumentUnavailable: "This instrument is not available for trading.",
	KindAccountNotFound:       "Account not found.",
	KindLimitExceeded:         "This order exceeds the account's trading limits.",
	KindIncompleteAssessment:  "Please answer every question of the assessment.",
	KindInvalidAnswer:         "One of the answers is not a valid option.",
	KindPersistenceFailure:    "We could not save your changes. Please try again.",
	KindTimeout:               "The account is busy. Please try again.",
	KindInvariantViolation:    "The operation was rejected to protect your account.",
}

// kindOrder lists sentinel lookups; infrastructure kinds come first so a business error
// wrapped into a persistence failure is still reported as retryable.
var kindOrder = []struct {
	kind Kind
	err  error
}{
	{KindInvariantViolation, ErrInvariantViolation},
	{KindPersistenceFailure, ErrPersistenceFailure},
	{KindPersistenceFailure, ErrConcurrentUpdate},
	{KindTimeout, ErrTimeout},
	{KindInsufficientFunds, ErrInsufficientFunds},
	{KindInsufficientShares, ErrInsufficientShares},
	{KindInsufficientBalance, ErrInsufficientBalance},
	{KindInvalidQuantity, ErrInvalidQuantity},
	{KindInvalidAmount, ErrInvalidAmount},
	{KindInstrumentUnavailable, ErrInstrumentUnavailable},
	{KindAccountNotFound, ErrAccountNotFound},
	{KindLimitExceeded, ErrLimitExceeded},
	{KindIncompleteAssessment, ErrIncompleteAssessment},
	{KindInvalidAnswer, ErrInvalidAnswer},
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// KindOf returns the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range kindOrder {
		if stderrors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

// Retryable reports whether the caller may retry the operation unchanged.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindPersistenceFailure, KindTimeout:
		return true
	default:
		return false
	}
}

// IsBusinessRule reports whether err is a rule rejection that must not be retried.
func IsBusinessRule(err error) bool {
	switch KindOf(err) {
	case KindUnknown, KindPersistenceFailure, KindTimeout, KindInvariantViolation:
		return false
	default:
		return true
	}
}

// Message returns the user-facing message for err.
func Message(err error) string {
	return kindMessages[KindOf(err)]
}
