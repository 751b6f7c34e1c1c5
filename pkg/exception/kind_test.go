package exception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanun0323/errors"
)

func TestKindOfWrapped(t *testing.T) {
	testCases := []struct {
		desc      string
		err       error
		kind      Kind
		retryable bool
		business  bool
	}{
		{desc: "nil", err: nil, kind: KindUnknown},
		{desc: "plain", err: context.Canceled, kind: KindUnknown},
		{desc: "funds", err: errors.Wrap(ErrInsufficientFunds, "buy"), kind: KindInsufficientFunds, business: true},
		{desc: "shares", err: errors.Wrap(ErrInsufficientShares, "sell").With("symbol", "AAPL"), kind: KindInsufficientShares, business: true},
		{desc: "timeout", err: errors.Wrap(ErrTimeout, "lock"), kind: KindTimeout, retryable: true},
		{desc: "persistence", err: errors.Wrap(ErrPersistenceFailure, "commit"), kind: KindPersistenceFailure, retryable: true},
		{desc: "conflict", err: ErrConcurrentUpdate, kind: KindPersistenceFailure, retryable: true},
		{desc: "invariant", err: ErrInvariantViolation, kind: KindInvariantViolation},
		{desc: "assessment", err: ErrIncompleteAssessment, kind: KindIncompleteAssessment, business: true},
		{desc: "quantity with fields", err: errors.Wrap(ErrInvalidQuantity, "buy").With("shares", 0).With("symbol", "AAPL"), kind: KindInvalidQuantity, business: true},
		{desc: "rewrapped", err: errors.Wrap(errors.Wrap(ErrAccountNotFound, "load account").With("account", "a1"), "acquire"), kind: KindAccountNotFound, business: true},
		{desc: "errorf", err: errors.Errorf("commit %s: %w", "a1", ErrPersistenceFailure), kind: KindPersistenceFailure, retryable: true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.kind, KindOf(tc.err))
			assert.Equal(t, tc.retryable, Retryable(tc.err))
			assert.Equal(t, tc.business, IsBusinessRule(tc.err))
		})
	}
}

func TestSentinelsMatchThroughWrap(t *testing.T) {
	sentinels := []error{
		ErrInsufficientFunds, ErrInsufficientShares, ErrInsufficientBalance, ErrInvalidQuantity,
		ErrInvalidAmount, ErrInstrumentUnavailable, ErrAccountNotFound, ErrLimitExceeded,
		ErrPersistenceFailure, ErrTimeout, ErrConcurrentUpdate, ErrInvariantViolation,
		ErrTickTooSoon, ErrIncompleteAssessment, ErrInvalidAnswer, ErrInvalidArgument,
	}
	for _, sentinel := range sentinels {
		wrapped := errors.Wrap(sentinel, "op").With("account", "a1")
		require.ErrorIs(t, wrapped, sentinel)
		require.ErrorIs(t, errors.Wrap(wrapped, "outer"), sentinel)
		assert.NotErrorIs(t, wrapped, ErrInternal)
	}
	assert.NotErrorIs(t, errors.Wrap(ErrInsufficientFunds, "buy"), ErrInsufficientShares)
}

func TestMessagesAreDistinct(t *testing.T) {
	seen := make(map[string]Kind, len(kindMessages))
	for i, msg := range kindMessages {
		assert.NotEmpty(t, msg, Kind(i).String())
		prev, dup := seen[msg]
		assert.Falsef(t, dup, "%s shares message with %s", Kind(i), prev)
		seen[msg] = Kind(i)
	}
	assert.Equal(t, "InsufficientFunds", KindInsufficientFunds.String())
	assert.Equal(t, "Unknown", Kind(200).String())
}
