package chaos

import (
	"context"

	"papertrade/internal/schema"
	"papertrade/internal/store"
)

// Repository is the store surface the fault injector wraps.
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

// Store injects delays and failures into commits. Reads pass through.
type Store struct {
	Repository
	engine *Engine
}

// Wrap returns repo with faults injected into its commit path.
func Wrap(repo Repository, engine *Engine) *Store {
	return &Store{Repository: repo, engine: engine}
}

func (s *Store) CommitTrade(ctx context.Context, c store.TradeCommit) error {
	if err := s.engine.Inject(ctx, "commit trade"); err != nil {
		return err
	}
	return s.Repository.CommitTrade(ctx, c)
}

func (s *Store) CommitTransfer(ctx context.Context, c store.TransferCommit) error {
	if err := s.engine.Inject(ctx, "commit transfer"); err != nil {
		return err
	}
	return s.Repository.CommitTransfer(ctx, c)
}

func (s *Store) UpdateAccount(ctx context.Context, acc schema.Account) error {
	if err := s.engine.Inject(ctx, "update account"); err != nil {
		return err
	}
	return s.Repository.UpdateAccount(ctx, acc)
}
