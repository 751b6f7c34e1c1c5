package state

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// AvgCostScale is the number of decimal places kept on a holding's average cost.
const AvgCostScale = 8

// Lot is a staged holding mutation. Prev is the holding before the lot; Next is the holding
// after it, with Deleted set when the lot closes the position.
type Lot struct {
	Symbol  string
	Delta   int64
	Price   decimal.Decimal
	Prev    schema.Holding
	Existed bool
	Next    schema.Holding
	Deleted bool
}

// HoldingBook tracks the holdings of one account. It is not safe for concurrent use; the
// ledger guards it with the account's data lock.
type HoldingBook struct {
	accountID string
	holdings  map[string]schema.Holding
}

// NewHoldingBook creates an empty book.
func NewHoldingBook(accountID string) *HoldingBook {
	return &HoldingBook{accountID: accountID, holdings: make(map[string]schema.Holding)}
}

// Stage computes the effect of a lot without mutating the book.
func (b *HoldingBook) Stage(symbol string, delta int64, price decimal.Decimal, now time.Time) (Lot, error) {
	if delta == 0 {
		return Lot{}, errors.Wrap(exception.ErrInvalidQuantity, "apply lot").With("symbol", symbol)
	}
	prev, existed := b.holdings[symbol]
	lot := Lot{
		Symbol:  symbol,
		Delta:   delta,
		Price:   price,
		Prev:    prev,
		Existed: existed,
	}
	if !existed {
		prev = schema.Holding{AccountID: b.accountID, Symbol: symbol}
	}

	next := prev
	next.UpdatedAt = now
	switch {
	case delta > 0:
		if price.Sign() <= 0 {
			return Lot{}, errors.Wrap(exception.ErrInvariantViolation, "apply lot: non-positive lot price").With("symbol", symbol)
		}
		next.Shares = prev.Shares + delta
		next.CostBasis = prev.CostBasis.Add(price.Mul(decimal.NewFromInt(delta)))
		next.AvgCost = next.CostBasis.DivRound(decimal.NewFromInt(next.Shares), AvgCostScale)
	default:
		next.Shares = prev.Shares + delta
		if next.Shares < 0 {
			return Lot{}, errors.Wrap(exception.ErrInvariantViolation, "apply lot: negative shares").
				With("symbol", symbol).
				With("shares", prev.Shares).
				With("delta", delta)
		}
		// average cost is carried unchanged through sells
		next.CostBasis = prev.AvgCost.Mul(decimal.NewFromInt(next.Shares))
		if next.Shares == 0 {
			lot.Deleted = true
		}
	}
	lot.Next = next
	return lot, nil
}

// Apply publishes a staged lot.
func (b *HoldingBook) Apply(lot Lot) {
	if lot.Deleted {
		delete(b.holdings, lot.Symbol)
		return
	}
	b.holdings[lot.Symbol] = lot.Next
}

// Revert undoes an applied lot.
func (b *HoldingBook) Revert(lot Lot) {
	if lot.Existed {
		b.holdings[lot.Symbol] = lot.Prev
		return
	}
	delete(b.holdings, lot.Symbol)
}

// ApplyLot stages and applies a lot in one step and returns the resulting holding. A
// positive delta folds the lot into the weighted average cost, a negative delta decrements
// shares and deletes the holding at zero.
func (b *HoldingBook) ApplyLot(symbol string, delta int64, price decimal.Decimal, now time.Time) (schema.Holding, error) {
	lot, err := b.Stage(symbol, delta, price, now)
	if err != nil {
		return schema.Holding{}, err
	}
	b.Apply(lot)
	return lot.Next, nil
}

// Put replaces a holding, used when loading from the store.
func (b *HoldingBook) Put(h schema.Holding) {
	if h.Shares <= 0 {
		delete(b.holdings, h.Symbol)
		return
	}
	h.AccountID = b.accountID
	if h.CostBasis.IsZero() {
		h.CostBasis = h.AvgCost.Mul(decimal.NewFromInt(h.Shares))
	}
	b.holdings[h.Symbol] = h
}

// Holding returns the holding for a symbol.
func (b *HoldingBook) Holding(symbol string) (schema.Holding, bool) {
	h, ok := b.holdings[symbol]
	return h, ok
}

// Count returns the number of held symbols.
func (b *HoldingBook) Count() int {
	return len(b.holdings)
}
