/*
Ledger is the single entry point for account mutations.

# Module
  - account registry: one operation lock and one data lock per account
  - trades: market buy and sell against the catalog price
  - transfers: cash and savings movements
  - snapshot: derived valuation of an account, computed without the operation lock

# Source
 1. prices from the instrument catalog
 2. persisted accounts, holdings and history from the repository

# Produce
  - write-through commits to the repository
  - committed ledger events to the publisher

# Sharded
  - accountId
*/
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"papertrade/internal/obs"
	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/internal/state"
	"papertrade/internal/store"
	"papertrade/pkg/exception"
)

const (
	DefaultLockTimeout = 2 * time.Second
	// MoneyScale is the number of decimal places accepted on amounts.
	MoneyScale = 4
)

// DefaultSeedCash is the cash balance of a new account.
var DefaultSeedCash = decimal.NewFromInt(10000)

// Repository is the durable store consumed by the ledger.
type Repository interface {
	CreateAccount(ctx context.Context, acc schema.Account) error
	LoadAccount(ctx context.Context, accountID string) (schema.Account, error)
	ListHoldings(ctx context.Context, accountID string) ([]schema.Holding, error)
	ListTransactions(ctx context.Context, accountID string) ([]schema.Transaction, error)
	ListTransfers(ctx context.Context, accountID string) ([]schema.Transfer, error)
	CommitTrade(ctx context.Context, c store.TradeCommit) error
	CommitTransfer(ctx context.Context, c store.TransferCommit) error
	UpdateAccount(ctx context.Context, acc schema.Account) error
}

// Catalog provides instrument prices.
type Catalog interface {
	Price(symbol string) (decimal.Decimal, error)
	Instrument(symbol string) (schema.Instrument, bool)
}

// Publisher receives committed events. TryPublish must not block.
type Publisher interface {
	TryPublish(e schema.LedgerEvent) error
}

// Config holds ledger settings.
type Config struct {
	SeedCash    decimal.Decimal
	LockTimeout time.Duration
}

// Ledger serializes mutations per account and keeps an in-memory view of every touched
// account in front of the repository.
type Ledger struct {
	cfg       Config
	repo      Repository
	catalog   Catalog
	limits    *risk.Engine
	scorer    *risk.Questionnaire
	publisher Publisher
	metrics   *obs.Metrics
	seq       *sequencer
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	accounts map[string]*account
}

type account struct {
	id   string
	lock chan struct{}

	mu        sync.RWMutex
	loaded    bool
	acc       schema.Account
	book      *state.HoldingBook
	journal   []schema.Transaction
	transfers []schema.Transfer
}

// Option customizes a ledger.
type Option func(*Ledger)

// WithLimits enables pre-trade order limits.
func WithLimits(e *risk.Engine) Option {
	return func(l *Ledger) { l.limits = e }
}

// WithQuestionnaire replaces the risk questionnaire.
func WithQuestionnaire(q *risk.Questionnaire) Option {
	return func(l *Ledger) { l.scorer = q }
}

// WithPublisher sends committed events to p.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithMetrics records ledger counters.
func WithMetrics(m *obs.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a ledger.
func New(repo Repository, catalog Catalog, cfg Config, opts ...Option) (*Ledger, error) {
	if repo == nil || catalog == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "ledger dependencies")
	}
	if cfg.SeedCash.IsZero() {
		cfg.SeedCash = DefaultSeedCash
	}
	if cfg.SeedCash.Sign() < 0 {
		return nil, errors.Errorf("seed cash must be >= 0, got %s", cfg.SeedCash)
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	l := &Ledger{
		cfg:      cfg,
		repo:     repo,
		catalog:  catalog,
		seq:      newSequencer(0),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		accounts: make(map[string]*account),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.scorer == nil {
		q, err := risk.NewQuestionnaire(risk.DefaultQuestions())
		if err != nil {
			return nil, err
		}
		l.scorer = q
	}
	return l, nil
}

// Questionnaire returns the questionnaire used by AssessRisk.
func (l *Ledger) Questionnaire() *risk.Questionnaire {
	return l.scorer
}

func (l *Ledger) entry(accountID string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[accountID]
	if !ok {
		a = &account{id: accountID, lock: make(chan struct{}, 1)}
		l.accounts[accountID] = a
	}
	return a
}

func (l *Ledger) forget(a *account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accounts[a.id] == a {
		delete(l.accounts, a.id)
	}
}

// acquire takes the account's operation lock, bounded by the lock timeout and ctx, and makes
// sure the account is loaded. The returned release must be called exactly once.
func (l *Ledger) acquire(ctx context.Context, accountID string) (*account, func(), error) {
	if accountID == "" {
		return nil, nil, errors.Wrap(exception.ErrAccountNotFound, "acquire").With("account", accountID)
	}
	a := l.entry(accountID)
	start := time.Now()
	timer := time.NewTimer(l.cfg.LockTimeout)
	defer timer.Stop()

	select {
	case a.lock <- struct{}{}:
	case <-timer.C:
		return nil, nil, errors.Wrap(exception.ErrTimeout, "acquire account lock").
			With("account", accountID).
			With("timeout", l.cfg.LockTimeout.String())
	case <-ctx.Done():
		return nil, nil, errors.Wrap(exception.ErrTimeout, "acquire account lock").
			With("account", accountID).
			With("cause", ctx.Err().Error())
	}
	l.metrics.ObserveLockWait(time.Since(start))
	release := func() { <-a.lock }

	if err := l.load(ctx, a); err != nil {
		release()
		return nil, nil, err
	}
	return a, release, nil
}

// load reads the account from the repository on first use. Callers hold the operation lock.
func (l *Ledger) load(ctx context.Context, a *account) error {
	a.mu.RLock()
	loaded := a.loaded
	a.mu.RUnlock()
	if loaded {
		return nil
	}

	acc, err := l.repo.LoadAccount(ctx, a.id)
	if err != nil {
		if exception.KindOf(err) == exception.KindAccountNotFound {
			l.forget(a)
			return err
		}
		return persistenceError("load account", a.id, err)
	}
	holdings, err := l.repo.ListHoldings(ctx, a.id)
	if err != nil {
		return persistenceError("load holdings", a.id, err)
	}
	journal, err := l.repo.ListTransactions(ctx, a.id)
	if err != nil {
		return persistenceError("load transactions", a.id, err)
	}
	transfers, err := l.repo.ListTransfers(ctx, a.id)
	if err != nil {
		return persistenceError("load transfers", a.id, err)
	}

	book := state.NewHoldingBook(a.id)
	for _, h := range holdings {
		book.Put(h)
	}
	for _, txn := range journal {
		l.seq.Observe(txn.Seq)
	}
	for _, tr := range transfers {
		l.seq.Observe(tr.Seq)
	}

	a.mu.Lock()
	a.acc = acc
	a.book = book
	a.journal = journal
	a.transfers = transfers
	a.loaded = true
	a.mu.Unlock()
	return nil
}

// commitFailed handles a failed write-through. Nothing staged was published in memory. The
// cached copy is dropped because the store may have moved underneath it (version conflict, or
// a commit whose outcome is unknown); the next operation reloads.
func (l *Ledger) commitFailed(a *account, op string, err error) error {
	a.mu.Lock()
	a.loaded = false
	a.mu.Unlock()
	logs.Warnf("ledger %s commit failed, account: %s, err: %+v", op, a.id, err)
	return persistenceError(op, a.id, err)
}

func persistenceError(op, accountID string, cause error) error {
	return errors.Wrap(exception.ErrPersistenceFailure, op).
		With("account", accountID).
		With("cause", cause.Error())
}

func (l *Ledger) publish(e schema.LedgerEvent) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.TryPublish(e); err != nil {
		l.metrics.IncQueueDrop()
		logs.Warnf("ledger event dropped, type: %s, account: %s, err: %+v", e.Type, e.AccountID, err)
	}
}

// observe counts a failed operation and reports invariant violations loudly.
func (l *Ledger) observe(op, accountID string, err error) {
	if err == nil {
		return
	}
	kind := exception.KindOf(err)
	l.metrics.IncReject(kind)
	if kind == exception.KindInvariantViolation {
		logs.Errorf("ledger %s invariant violation, account: %s, err: %+v", op, accountID, err)
	}
}

func checkBalances(acc schema.Account) error {
	if acc.CashBalance.Sign() < 0 || acc.SavingsBalance.Sign() < 0 {
		return errors.Wrap(exception.ErrInvariantViolation, "negative balance").
			With("account", acc.ID).
			With("cash", acc.CashBalance.String()).
			With("savings", acc.SavingsBalance.String())
	}
	return nil
}
