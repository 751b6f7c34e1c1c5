package store

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/schema"
)

type accountRow struct {
	ID             string          `gorm:"primaryKey;size:36"`
	CashBalance    decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	SavingsBalance decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	InitialSeed    decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	RiskProfile    string          `gorm:"size:16;not null;default:''"`
	Version        int64           `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (accountRow) TableName() string { return "accounts" }

type holdingRow struct {
	AccountID string          `gorm:"primaryKey;size:36"`
	Symbol    string          `gorm:"primaryKey;size:16"`
	Shares    int64           `gorm:"not null"`
	AvgCost   decimal.Decimal `gorm:"type:numeric(28,8);not null"`
	CostBasis decimal.Decimal `gorm:"type:numeric(28,8);not null"`
	UpdatedAt time.Time
}

func (holdingRow) TableName() string { return "holdings" }

type transactionRow struct {
	ID        string          `gorm:"primaryKey;size:36"`
	AccountID string          `gorm:"size:36;not null;index:idx_transactions_account,priority:1"`
	CreatedAt time.Time       `gorm:"not null;index:idx_transactions_account,priority:2"`
	Seq       uint64          `gorm:"not null;index:idx_transactions_account,priority:3"`
	Symbol    string          `gorm:"size:16;not null"`
	Side      string          `gorm:"size:4;not null"`
	Shares    int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	Total     decimal.Decimal `gorm:"type:numeric(24,4);not null"`
}

func (transactionRow) TableName() string { return "transactions" }

type transferRow struct {
	ID        string          `gorm:"primaryKey;size:36"`
	AccountID string          `gorm:"size:36;not null;index:idx_transfers_account,priority:1"`
	CreatedAt time.Time       `gorm:"not null;index:idx_transfers_account,priority:2"`
	Seq       uint64          `gorm:"not null"`
	Direction string          `gorm:"size:16;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(24,4);not null"`
}

func (transferRow) TableName() string { return "fund_transfers" }

type unlockRow struct {
	AccountID     string `gorm:"primaryKey;size:36"`
	AchievementID string `gorm:"primaryKey;size:32"`
	UnlockedAt    time.Time
}

func (unlockRow) TableName() string { return "achievement_unlocks" }

type gameScoreRow struct {
	AccountID string `gorm:"primaryKey;size:36"`
	Kind      string `gorm:"primaryKey;size:32"`
	Score     int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (gameScoreRow) TableName() string { return "game_scores" }

type instrumentRow struct {
	Symbol        string          `gorm:"primaryKey;size:16"`
	Name          string          `gorm:"size:128;not null"`
	Price         decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	PrevPrice     decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	Change        decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	ChangePercent decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Volatility    string          `gorm:"size:16;not null"`
	Risk          string          `gorm:"size:16;not null"`
	Active        bool            `gorm:"not null"`
	UpdatedAt     time.Time
}

func (instrumentRow) TableName() string { return "instruments" }

func models() []any {
	return []any{
		&accountRow{},
		&holdingRow{},
		&transactionRow{},
		&transferRow{},
		&unlockRow{},
		&gameScoreRow{},
		&instrumentRow{},
	}
}

func toAccountRow(a schema.Account) accountRow {
	return accountRow{
		ID:             a.ID,
		CashBalance:    a.CashBalance,
		SavingsBalance: a.SavingsBalance,
		InitialSeed:    a.InitialSeed,
		RiskProfile:    a.RiskProfile.String(),
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (r accountRow) toSchema() schema.Account {
	profile, _ := schema.ParseRiskProfile(r.RiskProfile)
	return schema.Account{
		ID:             r.ID,
		CashBalance:    r.CashBalance,
		SavingsBalance: r.SavingsBalance,
		InitialSeed:    r.InitialSeed,
		RiskProfile:    profile,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toHoldingRow(h schema.Holding) holdingRow {
	return holdingRow{
		AccountID: h.AccountID,
		Symbol:    h.Symbol,
		Shares:    h.Shares,
		AvgCost:   h.AvgCost,
		CostBasis: h.CostBasis,
		UpdatedAt: h.UpdatedAt,
	}
}

func (r holdingRow) toSchema() schema.Holding {
	return schema.Holding{
		AccountID: r.AccountID,
		Symbol:    r.Symbol,
		Shares:    r.Shares,
		AvgCost:   r.AvgCost,
		CostBasis: r.CostBasis,
		UpdatedAt: r.UpdatedAt,
	}
}

func toTransactionRow(t schema.Transaction) transactionRow {
	return transactionRow{
		ID:        t.ID,
		AccountID: t.AccountID,
		CreatedAt: t.CreatedAt,
		Seq:       t.Seq,
		Symbol:    t.Symbol,
		Side:      t.Side.String(),
		Shares:    t.Shares,
		Price:     t.Price,
		Total:     t.Total,
	}
}

func (r transactionRow) toSchema() schema.Transaction {
	var side schema.Side
	_ = side.UnmarshalText([]byte(r.Side))
	return schema.Transaction{
		ID:        r.ID,
		AccountID: r.AccountID,
		Seq:       r.Seq,
		Symbol:    r.Symbol,
		Side:      side,
		Shares:    r.Shares,
		Price:     r.Price,
		Total:     r.Total,
		CreatedAt: r.CreatedAt,
	}
}

func toTransferRow(t schema.Transfer) transferRow {
	return transferRow{
		ID:        t.ID,
		AccountID: t.AccountID,
		CreatedAt: t.CreatedAt,
		Seq:       t.Seq,
		Direction: t.Direction.String(),
		Amount:    t.Amount,
	}
}

func (r transferRow) toSchema() schema.Transfer {
	var dir schema.TransferDirection
	_ = dir.UnmarshalText([]byte(r.Direction))
	return schema.Transfer{
		ID:        r.ID,
		AccountID: r.AccountID,
		Seq:       r.Seq,
		Direction: dir,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

func toInstrumentRow(i schema.Instrument) instrumentRow {
	return instrumentRow{
		Symbol:        i.Symbol,
		Name:          i.Name,
		Price:         i.Price,
		PrevPrice:     i.PrevPrice,
		Change:        i.Change,
		ChangePercent: i.ChangePercent,
		Volatility:    i.Volatility.String(),
		Risk:          i.Risk.String(),
		Active:        i.Active,
		UpdatedAt:     i.UpdatedAt,
	}
}

func (r instrumentRow) toSchema() schema.Instrument {
	var vol schema.VolatilityClass
	_ = vol.UnmarshalText([]byte(r.Volatility))
	risk, _ := schema.ParseRiskProfile(r.Risk)
	return schema.Instrument{
		Symbol:        r.Symbol,
		Name:          r.Name,
		Price:         r.Price,
		PrevPrice:     r.PrevPrice,
		Change:        r.Change,
		ChangePercent: r.ChangePercent,
		Volatility:    vol,
		Risk:          risk,
		Active:        r.Active,
		UpdatedAt:     r.UpdatedAt,
	}
}
