package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Gorm is the durable store over a gorm connection.
type Gorm struct {
	db *gorm.DB
}

// NewGorm wraps an open connection.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if db == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "gorm store")
	}
	return &Gorm{db: db}, nil
}

// Migrate creates or updates the schema.
func (g *Gorm) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(models()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func (g *Gorm) CreateAccount(ctx context.Context, acc schema.Account) error {
	row := toAccountRow(acc)
	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, "create account").With("account", acc.ID)
	}
	return nil
}

func (g *Gorm) LoadAccount(ctx context.Context, accountID string) (schema.Account, error) {
	var row accountRow
	err := g.db.WithContext(ctx).Where("id = ?", accountID).Take(&row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return schema.Account{}, errors.Wrap(exception.ErrAccountNotFound, "load account").With("account", accountID)
	}
	if err != nil {
		return schema.Account{}, errors.Wrap(err, "load account").With("account", accountID)
	}
	return row.toSchema(), nil
}

func (g *Gorm) ListHoldings(ctx context.Context, accountID string) ([]schema.Holding, error) {
	var rows []holdingRow
	if err := g.db.WithContext(ctx).Where("account_id = ?", accountID).Order("symbol").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list holdings").With("account", accountID)
	}
	out := make([]schema.Holding, len(rows))
	for i, row := range rows {
		out[i] = row.toSchema()
	}
	return out, nil
}

func (g *Gorm) ListTransactions(ctx context.Context, accountID string) ([]schema.Transaction, error) {
	var rows []transactionRow
	err := g.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list transactions").With("account", accountID)
	}
	out := make([]schema.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.toSchema()
	}
	return out, nil
}

func (g *Gorm) ListTransfers(ctx context.Context, accountID string) ([]schema.Transfer, error) {
	var rows []transferRow
	err := g.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC, seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list transfers").With("account", accountID)
	}
	out := make([]schema.Transfer, len(rows))
	for i, row := range rows {
		out[i] = row.toSchema()
	}
	return out, nil
}

// bumpAccount writes the account if its stored version matches, incrementing it.
func bumpAccount(tx *gorm.DB, acc schema.Account) error {
	res := tx.Model(&accountRow{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]any{
			"cash_balance":    acc.CashBalance,
			"savings_balance": acc.SavingsBalance,
			"risk_profile":    acc.RiskProfile.String(),
			"version":         acc.Version + 1,
			"updated_at":      acc.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update account").With("account", acc.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(exception.ErrConcurrentUpdate, "update account").
			With("account", acc.ID).
			With("expected", acc.Version)
	}
	return nil
}

func (g *Gorm) CommitTrade(ctx context.Context, c TradeCommit) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpAccount(tx, c.Account); err != nil {
			return err
		}
		if c.HoldingGone {
			err := tx.Where("account_id = ? AND symbol = ?", c.Account.ID, c.Holding.Symbol).Delete(&holdingRow{}).Error
			if err != nil {
				return errors.Wrap(err, "delete holding").With("symbol", c.Holding.Symbol)
			}
		} else {
			row := toHoldingRow(c.Holding)
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "account_id"}, {Name: "symbol"}},
				DoUpdates: clause.AssignmentColumns([]string{"shares", "avg_cost", "cost_basis", "updated_at"}),
			}).Create(&row).Error
			if err != nil {
				return errors.Wrap(err, "upsert holding").With("symbol", c.Holding.Symbol)
			}
		}
		row := toTransactionRow(c.Transaction)
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(err, "insert transaction").With("transaction", c.Transaction.ID)
		}
		return nil
	})
}

func (g *Gorm) CommitTransfer(ctx context.Context, c TransferCommit) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpAccount(tx, c.Account); err != nil {
			return err
		}
		row := toTransferRow(c.Transfer)
		if err := tx.Create(&row).Error; err != nil {
			return errors.Wrap(err, "insert transfer").With("transfer", c.Transfer.ID)
		}
		return nil
	})
}

func (g *Gorm) UpdateAccount(ctx context.Context, acc schema.Account) error {
	return bumpAccount(g.db.WithContext(ctx), acc)
}

// RecordUnlock inserts the unlock once; the composite primary key rejects duplicates.
func (g *Gorm) RecordUnlock(ctx context.Context, u schema.AchievementUnlock) (bool, error) {
	row := unlockRow{AccountID: u.AccountID, AchievementID: u.AchievementID, UnlockedAt: u.UnlockedAt}
	res := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "record unlock").With("achievement", u.AchievementID)
	}
	return res.RowsAffected == 1, nil
}

func (g *Gorm) ListUnlocks(ctx context.Context, accountID string) ([]schema.AchievementUnlock, error) {
	var rows []unlockRow
	if err := g.db.WithContext(ctx).Where("account_id = ?", accountID).Order("achievement_id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list unlocks").With("account", accountID)
	}
	out := make([]schema.AchievementUnlock, len(rows))
	for i, row := range rows {
		out[i] = schema.AchievementUnlock{AccountID: row.AccountID, AchievementID: row.AchievementID, UnlockedAt: row.UnlockedAt}
	}
	return out, nil
}

func (g *Gorm) AddGameScore(ctx context.Context, accountID string, kind schema.GameKind, delta int64) error {
	if !kind.Valid() {
		return errors.Wrap(exception.ErrInvalidArgument, "game kind").With("kind", string(kind))
	}
	row := gameScoreRow{AccountID: accountID, Kind: string(kind), Score: delta, UpdatedAt: time.Now().UTC()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]any{
			"score":      gorm.Expr("game_scores.score + ?", delta),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return errors.Wrap(err, "add game score").With("kind", string(kind))
	}
	return nil
}

func (g *Gorm) GameCounters(ctx context.Context, accountID string) (schema.GameCounters, error) {
	var rows []gameScoreRow
	if err := g.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		return schema.GameCounters{}, errors.Wrap(err, "game counters").With("account", accountID)
	}
	var out schema.GameCounters
	for _, row := range rows {
		switch schema.GameKind(row.Kind) {
		case schema.GameQuiz:
			out.QuizScore = row.Score
		case schema.GameMarketPrediction:
			out.CorrectPredictions = row.Score
		}
	}
	return out, nil
}

func (g *Gorm) SaveInstruments(ctx context.Context, instruments []schema.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}
	rows := make([]instrumentRow, len(instruments))
	for i, inst := range instruments {
		rows[i] = toInstrumentRow(inst)
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price", "prev_price", "change", "change_percent", "volatility", "risk", "active", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return errors.Wrap(err, "save instruments")
	}
	return nil
}

func (g *Gorm) ListInstruments(ctx context.Context) ([]schema.Instrument, error) {
	var rows []instrumentRow
	if err := g.db.WithContext(ctx).Order("symbol").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list instruments")
	}
	out := make([]schema.Instrument, len(rows))
	for i, row := range rows {
		out[i] = row.toSchema()
	}
	return out, nil
}
