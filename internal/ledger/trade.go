package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/internal/state"
	"papertrade/internal/store"
	"papertrade/pkg/exception"
)

// Buy purchases shares at the current catalog price.
func (l *Ledger) Buy(ctx context.Context, accountID, symbol string, shares int64) (schema.Transaction, error) {
	txn, err := l.trade(ctx, accountID, symbol, schema.SideBuy, shares)
	l.observe("buy", accountID, err)
	return txn, err
}

// Sell disposes of shares at the current catalog price. The holding's average cost is kept.
func (l *Ledger) Sell(ctx context.Context, accountID, symbol string, shares int64) (schema.Transaction, error) {
	txn, err := l.trade(ctx, accountID, symbol, schema.SideSell, shares)
	l.observe("sell", accountID, err)
	return txn, err
}

func (l *Ledger) trade(ctx context.Context, accountID, symbol string, side schema.Side, shares int64) (schema.Transaction, error) {
	if shares <= 0 {
		return schema.Transaction{}, errors.Wrap(exception.ErrInvalidQuantity, side.String()).With("shares", shares)
	}

	a, release, err := l.acquire(ctx, accountID)
	if err != nil {
		return schema.Transaction{}, err
	}
	defer release()

	price, err := l.catalog.Price(symbol)
	if err != nil {
		return schema.Transaction{}, err
	}

	now := l.now()
	intent := risk.Intent{AccountID: accountID, Symbol: symbol, Side: side, Shares: shares, Price: price}
	if err := l.limits.Evaluate(intent, now).Err(intent); err != nil {
		return schema.Transaction{}, err
	}

	total := price.Mul(decimal.NewFromInt(shares))
	acc, lot, err := l.stageTrade(a, symbol, side, shares, price, total, now)
	if err != nil {
		return schema.Transaction{}, err
	}

	txn := schema.Transaction{
		ID:        l.newID(),
		AccountID: accountID,
		Seq:       l.seq.Next(),
		Symbol:    symbol,
		Side:      side,
		Shares:    shares,
		Price:     price,
		Total:     total,
		CreatedAt: now,
	}
	commit := store.TradeCommit{
		Account:     acc,
		Holding:     lot.Next,
		HoldingGone: lot.Deleted,
		Transaction: txn,
	}
	start := time.Now()
	err = l.repo.CommitTrade(ctx, commit)
	l.metrics.ObserveCommit(time.Since(start))
	if err != nil {
		return schema.Transaction{}, l.commitFailed(a, side.String(), err)
	}

	acc.Version++
	a.mu.Lock()
	a.acc = acc
	a.book.Apply(lot)
	a.journal = append(a.journal, txn)
	a.mu.Unlock()

	l.metrics.ObserveTrade(side)
	l.publish(schema.NewEvent(schema.EventTrade, accountID, txn.Seq, now))
	return txn, nil
}

// stageTrade checks preconditions against one consistent read and computes the post-trade
// account and holding without publishing them.
func (l *Ledger) stageTrade(a *account, symbol string, side schema.Side, shares int64, price, total decimal.Decimal, now time.Time) (schema.Account, state.Lot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acc := a.acc
	var (
		lot state.Lot
		err error
	)
	switch side {
	case schema.SideBuy:
		if total.GreaterThan(acc.CashBalance) {
			return schema.Account{}, state.Lot{}, errors.Wrap(exception.ErrInsufficientFunds, "buy").
				With("symbol", symbol).
				With("total", total.String()).
				With("cash", acc.CashBalance.String())
		}
		lot, err = a.book.Stage(symbol, shares, price, now)
		acc.CashBalance = acc.CashBalance.Sub(total)
	case schema.SideSell:
		held, ok := a.book.Holding(symbol)
		if !ok || held.Shares < shares {
			return schema.Account{}, state.Lot{}, errors.Wrap(exception.ErrInsufficientShares, "sell").
				With("symbol", symbol).
				With("shares", shares).
				With("held", held.Shares)
		}
		lot, err = a.book.Stage(symbol, -shares, price, now)
		acc.CashBalance = acc.CashBalance.Add(total)
	default:
		return schema.Account{}, state.Lot{}, errors.Wrap(exception.ErrInvalidArgument, "trade side").With("side", side.String())
	}
	if err != nil {
		return schema.Account{}, state.Lot{}, err
	}
	if err := checkBalances(acc); err != nil {
		return schema.Account{}, state.Lot{}, err
	}
	acc.UpdatedAt = now
	return acc, lot, nil
}
