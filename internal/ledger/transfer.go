package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/internal/store"
	"papertrade/pkg/exception"
)

// Transfer moves amount between the cash and savings balances of an account.
func (l *Ledger) Transfer(ctx context.Context, accountID string, direction schema.TransferDirection, amount decimal.Decimal) (schema.Transfer, error) {
	tr, err := l.transfer(ctx, accountID, direction, amount)
	l.observe("transfer", accountID, err)
	return tr, err
}

func (l *Ledger) transfer(ctx context.Context, accountID string, direction schema.TransferDirection, amount decimal.Decimal) (schema.Transfer, error) {
	if amount.Sign() <= 0 || !amount.Equal(amount.Round(MoneyScale)) {
		return schema.Transfer{}, errors.Wrap(exception.ErrInvalidAmount, "transfer").With("amount", amount.String())
	}
	if direction != schema.TransferCashToSavings && direction != schema.TransferSavingsToCash {
		return schema.Transfer{}, errors.Wrap(exception.ErrInvalidArgument, "transfer direction").With("direction", direction.String())
	}

	a, release, err := l.acquire(ctx, accountID)
	if err != nil {
		return schema.Transfer{}, err
	}
	defer release()

	now := l.now()
	a.mu.RLock()
	acc := a.acc
	a.mu.RUnlock()

	switch direction {
	case schema.TransferCashToSavings:
		if amount.GreaterThan(acc.CashBalance) {
			return schema.Transfer{}, errors.Wrap(exception.ErrInsufficientBalance, "transfer").
				With("direction", direction.String()).
				With("amount", amount.String()).
				With("cash", acc.CashBalance.String())
		}
		acc.CashBalance = acc.CashBalance.Sub(amount)
		acc.SavingsBalance = acc.SavingsBalance.Add(amount)
	case schema.TransferSavingsToCash:
		if amount.GreaterThan(acc.SavingsBalance) {
			return schema.Transfer{}, errors.Wrap(exception.ErrInsufficientBalance, "transfer").
				With("direction", direction.String()).
				With("amount", amount.String()).
				With("savings", acc.SavingsBalance.String())
		}
		acc.SavingsBalance = acc.SavingsBalance.Sub(amount)
		acc.CashBalance = acc.CashBalance.Add(amount)
	}
	if err := checkBalances(acc); err != nil {
		return schema.Transfer{}, err
	}
	acc.UpdatedAt = now

	tr := schema.Transfer{
		ID:        l.newID(),
		AccountID: accountID,
		Seq:       l.seq.Next(),
		Direction: direction,
		Amount:    amount,
		CreatedAt: now,
	}
	start := time.Now()
	err = l.repo.CommitTransfer(ctx, store.TransferCommit{Account: acc, Transfer: tr})
	l.metrics.ObserveCommit(time.Since(start))
	if err != nil {
		return schema.Transfer{}, l.commitFailed(a, "transfer", err)
	}

	acc.Version++
	a.mu.Lock()
	a.acc = acc
	a.transfers = append(a.transfers, tr)
	a.mu.Unlock()

	l.metrics.IncTransfer()
	l.publish(schema.NewEvent(schema.EventTransfer, accountID, tr.Seq, now))
	return tr, nil
}
