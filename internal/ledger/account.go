package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/internal/state"
)

// OpenAccount creates an account with the configured seed cash, zero savings and no holdings.
func (l *Ledger) OpenAccount(ctx context.Context) (schema.Account, error) {
	now := l.now()
	acc := schema.Account{
		ID:             l.newID(),
		CashBalance:    l.cfg.SeedCash,
		SavingsBalance: decimal.Zero,
		InitialSeed:    l.cfg.SeedCash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.repo.CreateAccount(ctx, acc); err != nil {
		err = persistenceError("open account", acc.ID, err)
		l.observe("open account", acc.ID, err)
		return schema.Account{}, err
	}

	a := l.entry(acc.ID)
	a.mu.Lock()
	a.acc = acc
	a.book = state.NewHoldingBook(acc.ID)
	a.loaded = true
	a.mu.Unlock()

	logs.Infof("ledger account opened, account: %s, seed: %s", acc.ID, schema.FormatMoney(acc.InitialSeed, schema.DefaultCurrency))
	return acc, nil
}

// Account returns the current account record.
func (l *Ledger) Account(ctx context.Context, accountID string) (schema.Account, error) {
	v, err := l.read(ctx, accountID)
	if err != nil {
		return schema.Account{}, err
	}
	return v.acc, nil
}

// AssessRisk scores a completed questionnaire and stores the resulting profile on the account.
func (l *Ledger) AssessRisk(ctx context.Context, accountID string, answers []schema.Answer) (schema.RiskAssessment, error) {
	res, err := l.assessRisk(ctx, accountID, answers)
	l.observe("assess risk", accountID, err)
	return res, err
}

func (l *Ledger) assessRisk(ctx context.Context, accountID string, answers []schema.Answer) (schema.RiskAssessment, error) {
	score, profile, err := l.scorer.Assess(answers)
	if err != nil {
		return schema.RiskAssessment{}, err
	}

	a, release, err := l.acquire(ctx, accountID)
	if err != nil {
		return schema.RiskAssessment{}, err
	}
	defer release()

	now := l.now()
	a.mu.RLock()
	acc := a.acc
	a.mu.RUnlock()
	acc.RiskProfile = profile
	acc.UpdatedAt = now

	start := time.Now()
	err = l.repo.UpdateAccount(ctx, acc)
	l.metrics.ObserveCommit(time.Since(start))
	if err != nil {
		return schema.RiskAssessment{}, l.commitFailed(a, "assess risk", err)
	}

	acc.Version++
	a.mu.Lock()
	a.acc = acc
	a.mu.Unlock()

	l.publish(schema.NewEvent(schema.EventAssessment, accountID, l.seq.Next(), now))
	logs.Infof("ledger risk assessed, account: %s, score: %d, profile: %s", accountID, score, profile)
	return schema.RiskAssessment{
		AccountID:   accountID,
		Score:       score,
		Profile:     profile,
		AssessedAt:  now,
		Description: risk.Describe(profile),
	}, nil
}

// Transactions returns the trade history of an account, oldest first.
func (l *Ledger) Transactions(ctx context.Context, accountID string) ([]schema.Transaction, error) {
	a, err := l.cached(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]schema.Transaction(nil), a.journal...), nil
}

// Transfers returns the transfer history of an account, oldest first.
func (l *Ledger) Transfers(ctx context.Context, accountID string) ([]schema.Transfer, error) {
	a, err := l.cached(ctx, accountID)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]schema.Transfer(nil), a.transfers...), nil
}
