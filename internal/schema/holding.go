package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a position in one instrument. A holding with zero shares does not exist.
type Holding struct {
	AccountID string
	Symbol    string
	Shares    int64
	AvgCost   decimal.Decimal
	CostBasis decimal.Decimal
	UpdatedAt time.Time
}

// HoldingView is a holding valued at the current catalog price.
type HoldingView struct {
	Symbol          string
	Shares          int64
	AvgCost         decimal.Decimal
	CurrentPrice    decimal.Decimal
	CurrentValue    decimal.Decimal
	Invested        decimal.Decimal
	GainLoss        decimal.Decimal
	GainLossPercent decimal.Decimal
	PriceStale      bool
}

// AccountSnapshot is the derived valuation of an account at one instant.
type AccountSnapshot struct {
	AccountID            string
	CashBalance          decimal.Decimal
	SavingsBalance       decimal.Decimal
	Holdings             []HoldingView
	HoldingsValue        decimal.Decimal
	TotalInvested        decimal.Decimal
	TotalValue           decimal.Decimal
	TotalGainLoss        decimal.Decimal
	TotalGainLossPercent decimal.Decimal
	TradeCount           int
	RiskProfile          RiskProfile
	TakenAt              time.Time
}
