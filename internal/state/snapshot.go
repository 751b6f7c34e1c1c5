package state

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
)

// Snapshot captures the holdings of one account at a point in time.
type Snapshot struct {
	AccountID string
	TakenAt   time.Time
	Holdings  []schema.Holding
}

// Snapshot returns the holdings sorted by symbol.
func (b *HoldingBook) Snapshot() Snapshot {
	return Snapshot{
		AccountID: b.accountID,
		TakenAt:   time.Now().UTC(),
		Holdings:  b.Holdings(),
	}
}

// Holdings returns a copy of the holdings sorted by symbol.
func (b *HoldingBook) Holdings() []schema.Holding {
	entries := make([]schema.Holding, 0, len(b.holdings))
	for _, h := range b.holdings {
		entries = append(entries, h)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries
}

// Restore replaces the book's holdings with a snapshot.
func (b *HoldingBook) Restore(snapshot Snapshot) {
	if b.holdings == nil {
		b.holdings = make(map[string]schema.Holding, len(snapshot.Holdings))
	} else {
		for key := range b.holdings {
			delete(b.holdings, key)
		}
	}
	for _, h := range snapshot.Holdings {
		b.Put(h)
	}
}

// CompareSnapshots checks that two snapshots hold the same shares at the same average cost.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Holdings) != len(actual.Holdings) {
		return errors.Errorf("snapshot length mismatch: expected=%d actual=%d", len(expected.Holdings), len(actual.Holdings))
	}
	expectedMap := make(map[string]schema.Holding, len(expected.Holdings))
	for _, h := range expected.Holdings {
		expectedMap[h.Symbol] = h
	}
	for _, h := range actual.Holdings {
		want, ok := expectedMap[h.Symbol]
		if !ok {
			return errors.Errorf("snapshot missing symbol: %s", h.Symbol)
		}
		if want.Shares != h.Shares {
			return errors.Errorf("snapshot shares mismatch: symbol=%s expected=%d actual=%d", h.Symbol, want.Shares, h.Shares)
		}
		if !sameCost(want.AvgCost, h.AvgCost) {
			return errors.Errorf("snapshot avg cost mismatch: symbol=%s expected=%s actual=%s", h.Symbol, want.AvgCost, h.AvgCost)
		}
	}
	return nil
}

func sameCost(a, b decimal.Decimal) bool {
	return a.Round(AvgCostScale).Equal(b.Round(AvgCostScale))
}
