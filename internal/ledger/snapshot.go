package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/internal/state"
	"papertrade/pkg/exception"
)

// PercentScale is the number of decimal places kept on gain/loss percentages.
const PercentScale = 4

var hundred = decimal.NewFromInt(100)

// view is a consistent copy of an account taken under its data lock.
type view struct {
	acc        schema.Account
	holdings   []schema.Holding
	tradeCount int
}

// read returns a consistent copy of the account.
func (l *Ledger) read(ctx context.Context, accountID string) (view, error) {
	a, err := l.cached(ctx, accountID)
	if err != nil {
		return view{}, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view(), nil
}

// cached returns the in-memory account. The operation lock is only taken when the account has
// to be loaded from the repository first.
func (l *Ledger) cached(ctx context.Context, accountID string) (*account, error) {
	if accountID == "" {
		return nil, errors.Wrap(exception.ErrAccountNotFound, "read").With("account", accountID)
	}
	a := l.entry(accountID)
	a.mu.RLock()
	loaded := a.loaded
	a.mu.RUnlock()
	if loaded {
		return a, nil
	}

	a, release, err := l.acquire(ctx, accountID)
	if err != nil {
		return nil, err
	}
	release()
	return a, nil
}

// view copies the account; callers hold a.mu.
func (a *account) view() view {
	return view{
		acc:        a.acc,
		holdings:   a.book.Holdings(),
		tradeCount: len(a.journal),
	}
}

// Snapshot values an account at the current catalog prices. A held symbol without a catalog
// price is valued at its average cost and flagged as stale.
func (l *Ledger) Snapshot(ctx context.Context, accountID string) (schema.AccountSnapshot, error) {
	v, err := l.read(ctx, accountID)
	if err != nil {
		return schema.AccountSnapshot{}, err
	}

	snap := schema.AccountSnapshot{
		AccountID:      v.acc.ID,
		CashBalance:    v.acc.CashBalance,
		SavingsBalance: v.acc.SavingsBalance,
		Holdings:       make([]schema.HoldingView, 0, len(v.holdings)),
		HoldingsValue:  decimal.Zero,
		TotalInvested:  decimal.Zero,
		TradeCount:     v.tradeCount,
		RiskProfile:    v.acc.RiskProfile,
		TakenAt:        l.now(),
	}
	for _, h := range v.holdings {
		hv := l.value(h)
		snap.Holdings = append(snap.Holdings, hv)
		snap.HoldingsValue = snap.HoldingsValue.Add(hv.CurrentValue)
		snap.TotalInvested = snap.TotalInvested.Add(hv.Invested)
	}
	sort.Slice(snap.Holdings, func(i, j int) bool { return snap.Holdings[i].Symbol < snap.Holdings[j].Symbol })

	snap.TotalValue = snap.CashBalance.Add(snap.SavingsBalance).Add(snap.HoldingsValue)
	snap.TotalGainLoss = snap.TotalValue.Sub(v.acc.InitialSeed)
	snap.TotalGainLossPercent = percent(snap.TotalGainLoss, v.acc.InitialSeed)
	return snap, nil
}

func (l *Ledger) value(h schema.Holding) schema.HoldingView {
	shares := decimal.NewFromInt(h.Shares)
	hv := schema.HoldingView{
		Symbol:   h.Symbol,
		Shares:   h.Shares,
		AvgCost:  h.AvgCost,
		Invested: h.AvgCost.Mul(shares),
	}
	price, err := l.catalog.Price(h.Symbol)
	if err != nil {
		price = h.AvgCost
		hv.PriceStale = true
	}
	hv.CurrentPrice = price
	hv.CurrentValue = price.Mul(shares)
	hv.GainLoss = hv.CurrentValue.Sub(hv.Invested)
	hv.GainLossPercent = percent(hv.GainLoss, hv.Invested)
	return hv
}

func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.Sign() <= 0 {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, PercentScale)
}

// CheckRiskAlignment reports whether an instrument of the given risk suits the account's
// profile. It is advisory and never blocks a trade.
func (l *Ledger) CheckRiskAlignment(ctx context.Context, accountID string, instrumentRisk schema.RiskProfile) (bool, error) {
	v, err := l.read(ctx, accountID)
	if err != nil {
		return false, err
	}
	return risk.Aligned(v.acc.RiskProfile, instrumentRisk), nil
}

// CheckSymbolAlignment is CheckRiskAlignment with the risk read from the catalog.
func (l *Ledger) CheckSymbolAlignment(ctx context.Context, accountID, symbol string) (bool, error) {
	inst, ok := l.catalog.Instrument(symbol)
	if !ok {
		return false, errors.Wrap(exception.ErrInstrumentUnavailable, "risk alignment").With("symbol", symbol)
	}
	return l.CheckRiskAlignment(ctx, accountID, inst.Risk)
}

// Reconcile compares the cached holdings of an account with the repository.
func (l *Ledger) Reconcile(ctx context.Context, accountID string) error {
	a, release, err := l.acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer release()

	a.mu.RLock()
	expected := a.book.Snapshot()
	a.mu.RUnlock()

	stored, err := l.repo.ListHoldings(ctx, accountID)
	if err != nil {
		return persistenceError("reconcile", accountID, err)
	}
	book := state.NewHoldingBook(accountID)
	for _, h := range stored {
		book.Put(h)
	}
	if err := state.CompareSnapshots(expected, book.Snapshot()); err != nil {
		return errors.Wrap(exception.ErrInvariantViolation, "reconcile holdings").
			With("account", accountID).
			With("cause", err.Error())
	}
	return nil
}
