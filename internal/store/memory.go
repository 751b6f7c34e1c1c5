package store

import (
	"context"
	"sort"
	"sync"

	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

type unlockKey struct {
	accountID     string
	achievementID string
}

// Memory is an in-process store guarded by a single RWMutex.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]schema.Account
	holdings     map[string]map[string]schema.Holding
	transactions map[string][]schema.Transaction
	transfers    map[string][]schema.Transfer
	unlocks      map[unlockKey]schema.AchievementUnlock
	games        map[string]schema.GameCounters
	instruments  map[string]schema.Instrument
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]schema.Account),
		holdings:     make(map[string]map[string]schema.Holding),
		transactions: make(map[string][]schema.Transaction),
		transfers:    make(map[string][]schema.Transfer),
		unlocks:      make(map[unlockKey]schema.AchievementUnlock),
		games:        make(map[string]schema.GameCounters),
		instruments:  make(map[string]schema.Instrument),
	}
}

func (m *Memory) Migrate(context.Context) error {
	return nil
}

func (m *Memory) CreateAccount(_ context.Context, acc schema.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acc.ID]; ok {
		return errors.Wrap(exception.ErrInvalidArgument, "account exists").With("account", acc.ID)
	}
	m.accounts[acc.ID] = acc
	return nil
}

func (m *Memory) LoadAccount(_ context.Context, accountID string) (schema.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return schema.Account{}, errors.Wrap(exception.ErrAccountNotFound, "load account").With("account", accountID)
	}
	return acc, nil
}

func (m *Memory) ListHoldings(_ context.Context, accountID string) ([]schema.Holding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schema.Holding, 0, len(m.holdings[accountID]))
	for _, h := range m.holdings[accountID] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) ListTransactions(_ context.Context, accountID string) ([]schema.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schema.Transaction(nil), m.transactions[accountID]...), nil
}

func (m *Memory) ListTransfers(_ context.Context, accountID string) ([]schema.Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]schema.Transfer(nil), m.transfers[accountID]...), nil
}

// bumpAccount applies the version check; callers hold m.mu.
func (m *Memory) bumpAccount(acc schema.Account) error {
	stored, ok := m.accounts[acc.ID]
	if !ok {
		return errors.Wrap(exception.ErrAccountNotFound, "commit").With("account", acc.ID)
	}
	if stored.Version != acc.Version {
		return errors.Wrap(exception.ErrConcurrentUpdate, "commit").
			With("account", acc.ID).
			With("expected", acc.Version).
			With("stored", stored.Version)
	}
	acc.Version++
	m.accounts[acc.ID] = acc
	return nil
}

func (m *Memory) CommitTrade(_ context.Context, c TradeCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bumpAccount(c.Account); err != nil {
		return err
	}
	book, ok := m.holdings[c.Account.ID]
	if !ok {
		book = make(map[string]schema.Holding)
		m.holdings[c.Account.ID] = book
	}
	if c.HoldingGone {
		delete(book, c.Holding.Symbol)
	} else {
		book[c.Holding.Symbol] = c.Holding
	}
	m.transactions[c.Account.ID] = append(m.transactions[c.Account.ID], c.Transaction)
	return nil
}

func (m *Memory) CommitTransfer(_ context.Context, c TransferCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.bumpAccount(c.Account); err != nil {
		return err
	}
	m.transfers[c.Account.ID] = append(m.transfers[c.Account.ID], c.Transfer)
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, acc schema.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bumpAccount(acc)
}

func (m *Memory) RecordUnlock(_ context.Context, u schema.AchievementUnlock) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := unlockKey{accountID: u.AccountID, achievementID: u.AchievementID}
	if _, ok := m.unlocks[key]; ok {
		return false, nil
	}
	m.unlocks[key] = u
	return true, nil
}

func (m *Memory) ListUnlocks(_ context.Context, accountID string) ([]schema.AchievementUnlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schema.AchievementUnlock
	for key, u := range m.unlocks {
		if key.accountID == accountID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AchievementID < out[j].AchievementID })
	return out, nil
}

func (m *Memory) AddGameScore(_ context.Context, accountID string, kind schema.GameKind, delta int64) error {
	if !kind.Valid() {
		return errors.Wrap(exception.ErrInvalidArgument, "game kind").With("kind", string(kind))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.games[accountID]
	switch kind {
	case schema.GameQuiz:
		c.QuizScore += delta
	case schema.GameMarketPrediction:
		c.CorrectPredictions += delta
	}
	m.games[accountID] = c
	return nil
}

func (m *Memory) GameCounters(_ context.Context, accountID string) (schema.GameCounters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.games[accountID], nil
}

func (m *Memory) SaveInstruments(_ context.Context, instruments []schema.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range instruments {
		m.instruments[inst.Symbol] = inst
	}
	return nil
}

func (m *Memory) ListInstruments(context.Context) ([]schema.Instrument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schema.Instrument, 0, len(m.instruments))
	for _, inst := range m.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}
