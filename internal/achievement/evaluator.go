/*
Achievement evaluates the fixed rule table against an account's snapshot and game counters and
records each unlock exactly once.

# Module
  - rules: the rule table
  - evaluator: progress, idempotent unlock recording
  - worker: consumes ledger events from the bus

# Source
 1. account snapshots from the ledger
 2. game counters and recorded unlocks from the repository

# Produce
  - unlock records to the repository
  - unlock notifications to the worker's subscribers
*/
package achievement

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Repository stores unlocks. RecordUnlock reports whether the unlock was newly inserted; the
// store enforces uniqueness of (account, achievement).
type Repository interface {
	RecordUnlock(ctx context.Context, u schema.AchievementUnlock) (bool, error)
	ListUnlocks(ctx context.Context, accountID string) ([]schema.AchievementUnlock, error)
}

// Result is the outcome of one evaluation.
type Result struct {
	Achievements []schema.Achievement
	NewUnlocks   []schema.Achievement
}

// Evaluator caches unlocks per account in front of the repository. Unlocks are never revoked.
type Evaluator struct {
	repo  Repository
	rules []Rule
	now   func() time.Time

	mu       sync.Mutex
	accounts map[string]*unlocks
}

type unlocks struct {
	mu     sync.Mutex
	loaded bool
	at     map[string]time.Time
}

// NewEvaluator creates an evaluator over the default rule table.
func NewEvaluator(repo Repository) (*Evaluator, error) {
	if repo == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "achievement repository")
	}
	return &Evaluator{
		repo:     repo,
		rules:    Rules(),
		now:      func() time.Time { return time.Now().UTC() },
		accounts: make(map[string]*unlocks),
	}, nil
}

func (e *Evaluator) entry(accountID string) *unlocks {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.accounts[accountID]
	if !ok {
		u = &unlocks{at: make(map[string]time.Time)}
		e.accounts[accountID] = u
	}
	return u
}

// Evaluate computes progress for every rule and records rules that hold for the first time.
// Evaluations of one account are serialized so each unlock is claimed once. When recording
// fails midway the partial result still carries the unlocks recorded before the failure.
func (e *Evaluator) Evaluate(ctx context.Context, accountID string, st State) (Result, error) {
	if accountID == "" {
		return Result{}, errors.Wrap(exception.ErrInvalidArgument, "evaluate: empty account")
	}
	u := e.entry(accountID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.loaded {
		stored, err := e.repo.ListUnlocks(ctx, accountID)
		if err != nil {
			return Result{}, errors.Wrap(exception.ErrPersistenceFailure, "list unlocks").
				With("account", accountID).
				With("cause", err.Error())
		}
		for _, s := range stored {
			u.at[s.AchievementID] = s.UnlockedAt
		}
		u.loaded = true
	}

	now := e.now()
	res := Result{Achievements: make([]schema.Achievement, 0, len(e.rules))}
	for _, r := range e.rules {
		a := schema.Achievement{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Category:    r.Category,
			Progress:    r.progress(st),
			MaxProgress: r.Max,
		}
		if at, ok := u.at[r.ID]; ok {
			a.Unlocked, a.UnlockedAt = true, at
			res.Achievements = append(res.Achievements, a)
			continue
		}
		if a.Progress.LessThan(r.Max) {
			res.Achievements = append(res.Achievements, a)
			continue
		}

		inserted, err := e.repo.RecordUnlock(ctx, schema.AchievementUnlock{AccountID: accountID, AchievementID: r.ID, UnlockedAt: now})
		if err != nil {
			return res, errors.Wrap(exception.ErrPersistenceFailure, "record unlock").
				With("account", accountID).
				With("achievement", r.ID).
				With("cause", err.Error())
		}
		u.at[r.ID] = now
		a.Unlocked, a.UnlockedAt = true, now
		res.Achievements = append(res.Achievements, a)
		if inserted {
			res.NewUnlocks = append(res.NewUnlocks, a)
		}
	}
	return res, nil
}
