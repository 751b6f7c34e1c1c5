package state

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"papertrade/pkg/exception"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyLotWeightedAverage(t *testing.T) {
	book := NewHoldingBook("acc")

	h, err := book.ApplyLot("AAPL", 10, dec("100"), testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(10), h.Shares)
	assert.True(t, h.AvgCost.Equal(dec("100")), h.AvgCost.String())

	h, err = book.ApplyLot("AAPL", 30, dec("120"), testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(40), h.Shares)
	assert.True(t, h.AvgCost.Equal(dec("115")), h.AvgCost.String())
	assert.True(t, h.CostBasis.Equal(dec("4600")), h.CostBasis.String())
	assert.Equal(t, "acc", h.AccountID)
}

func TestApplyLotSellKeepsAvgCost(t *testing.T) {
	book := NewHoldingBook("acc")
	_, err := book.ApplyLot("MSFT", 3, dec("380.5"), testNow)
	require.NoError(t, err)
	_, err = book.ApplyLot("MSFT", 4, dec("390.25"), testNow)
	require.NoError(t, err)
	before, ok := book.Holding("MSFT")
	require.True(t, ok)

	after, err := book.ApplyLot("MSFT", -5, dec("999"), testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.Shares)
	assert.Equal(t, before.AvgCost.String(), after.AvgCost.String())

	_, err = book.ApplyLot("MSFT", -2, dec("1"), testNow)
	require.NoError(t, err)
	_, ok = book.Holding("MSFT")
	assert.False(t, ok, "holding must be deleted at zero shares")
	assert.Equal(t, 0, book.Count())
}

func TestApplyLotRejects(t *testing.T) {
	book := NewHoldingBook("acc")
	_, err := book.ApplyLot("TSLA", 0, dec("10"), testNow)
	assert.ErrorIs(t, err, exception.ErrInvalidQuantity)

	_, err = book.ApplyLot("TSLA", 2, dec("10"), testNow)
	require.NoError(t, err)

	_, err = book.ApplyLot("TSLA", -3, dec("10"), testNow)
	assert.ErrorIs(t, err, exception.ErrInvariantViolation)
	h, ok := book.Holding("TSLA")
	require.True(t, ok)
	assert.Equal(t, int64(2), h.Shares, "rejected lot must leave the book untouched")

	_, err = book.ApplyLot("TSLA", 1, decimal.Zero, testNow)
	assert.ErrorIs(t, err, exception.ErrInvariantViolation)
}

func TestStageRevert(t *testing.T) {
	book := NewHoldingBook("acc")
	_, err := book.ApplyLot("SPY", 5, dec("445"), testNow)
	require.NoError(t, err)

	lot, err := book.Stage("SPY", 5, dec("455"), testNow)
	require.NoError(t, err)
	h, _ := book.Holding("SPY")
	assert.Equal(t, int64(5), h.Shares, "stage must not mutate")

	book.Apply(lot)
	h, _ = book.Holding("SPY")
	assert.Equal(t, int64(10), h.Shares)
	assert.True(t, h.AvgCost.Equal(dec("450")))

	book.Revert(lot)
	h, _ = book.Holding("SPY")
	assert.Equal(t, int64(5), h.Shares)

	fresh, err := book.Stage("BND", 1, dec("102"), testNow)
	require.NoError(t, err)
	book.Apply(fresh)
	book.Revert(fresh)
	_, ok := book.Holding("BND")
	assert.False(t, ok)
}

func TestSnapshotRestoreCompare(t *testing.T) {
	book := NewHoldingBook("acc")
	_, _ = book.ApplyLot("VTI", 2, dec("235"), testNow)
	_, _ = book.ApplyLot("AAPL", 1, dec("180"), testNow)
	snap := book.Snapshot()
	require.Len(t, snap.Holdings, 2)
	assert.Equal(t, "AAPL", snap.Holdings[0].Symbol)

	other := NewHoldingBook("acc")
	other.Restore(snap)
	require.NoError(t, CompareSnapshots(snap, other.Snapshot()))

	_, _ = other.ApplyLot("VTI", -1, dec("240"), testNow)
	assert.Error(t, CompareSnapshots(snap, other.Snapshot()))

	_, _ = other.ApplyLot("ETH", 1, dec("2600"), testNow)
	assert.Error(t, CompareSnapshots(snap, other.Snapshot()))
}

func TestWeightedAverageIsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "lots")
		type lot struct {
			qty   int64
			cents int64
		}
		lots := make([]lot, n)
		var totalQty int64
		totalCost := decimal.Zero
		for i := range lots {
			lots[i] = lot{
				qty:   rapid.Int64Range(1, 500).Draw(t, "qty"),
				cents: rapid.Int64Range(1, 5_000_000).Draw(t, "cents"),
			}
			totalQty += lots[i].qty
			totalCost = totalCost.Add(decimal.New(lots[i].cents, -2).Mul(decimal.NewFromInt(lots[i].qty)))
		}

		forward := NewHoldingBook("acc")
		for _, l := range lots {
			if _, err := forward.ApplyLot("X", l.qty, decimal.New(l.cents, -2), testNow); err != nil {
				t.Fatalf("forward apply: %v", err)
			}
		}

		shuffled := append([]lot(nil), lots...)
		sort.SliceStable(shuffled, func(i, j int) bool { return shuffled[i].cents > shuffled[j].cents })
		backward := NewHoldingBook("acc")
		for i := len(shuffled) - 1; i >= 0; i-- {
			l := shuffled[i]
			if _, err := backward.ApplyLot("X", l.qty, decimal.New(l.cents, -2), testNow); err != nil {
				t.Fatalf("backward apply: %v", err)
			}
		}

		a, _ := forward.Holding("X")
		b, _ := backward.Holding("X")
		want := totalCost.DivRound(decimal.NewFromInt(totalQty), AvgCostScale)
		if !a.AvgCost.Equal(b.AvgCost) || !a.AvgCost.Equal(want) {
			t.Fatalf("avg cost mismatch: forward=%s backward=%s want=%s", a.AvgCost, b.AvgCost, want)
		}
		if a.Shares != totalQty || b.Shares != totalQty {
			t.Fatalf("shares mismatch: forward=%d backward=%d want=%d", a.Shares, b.Shares, totalQty)
		}
	})
}
