/*
Core wires the trading simulation into one service.

# Module
  - instrument catalog: seeded from config, resumed from persisted prices
  - ledger: single entry point for account mutations
  - price simulator: periodic random walk over the catalog
  - achievement worker: evaluates rules after every committed mutation

# Source
 1. account operations from the API and CLI
 2. simulator ticks

# Produce
  - durable writes to the store
  - ledger events to the achievement worker

# Sharded
  - accountId
*/
package core

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"papertrade/internal/achievement"
	"papertrade/internal/bus"
	"papertrade/internal/catalog"
	"papertrade/internal/chaos"
	"papertrade/internal/ledger"
	"papertrade/internal/mdg"
	"papertrade/internal/obs"
	"papertrade/internal/ops"
	"papertrade/internal/risk"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Store is the durable store behind every component.
type Store interface {
	chaos.Repository
	achievement.Repository
	mdg.PriceSink
	Migrate(ctx context.Context) error
	AddGameScore(ctx context.Context, accountID string, kind schema.GameKind, delta int64) error
	GameCounters(ctx context.Context, accountID string) (schema.GameCounters, error)
	ListInstruments(ctx context.Context) ([]schema.Instrument, error)
}

// Service owns the running components.
type Service struct {
	cfg   ops.Loaded
	store Store

	Catalog   *catalog.Catalog
	Ledger    *ledger.Ledger
	Limits    *risk.Engine
	Simulator *mdg.Simulator
	Queue     *bus.Queue
	Worker    *achievement.Worker
	Metrics   *obs.Metrics
}

// New migrates the store and builds the components. Nothing runs until Run.
func New(ctx context.Context, cfg ops.Loaded, store Store) (*Service, error) {
	if store == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "core store")
	}
	if err := store.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "migrate store")
	}

	cat, err := loadCatalog(ctx, cfg.Instruments, store)
	if err != nil {
		return nil, err
	}

	var repo ledger.Repository = store
	if cfg.Features.EnableChaos {
		engine, err := chaos.NewEngine(cfg.Chaos)
		if err != nil {
			return nil, err
		}
		repo = chaos.Wrap(store, engine)
		logs.Warnf("chaos enabled, failRate: %.3f, maxDelay: %s", cfg.Chaos.FailRate, cfg.Chaos.MaxDelay)
	}

	metrics := obs.NewMetrics()
	limits := risk.NewEngine(cfg.Risk)
	queue := bus.NewQueue(cfg.QueueSize)
	opts := []ledger.Option{ledger.WithLimits(limits), ledger.WithMetrics(metrics)}
	if cfg.Features.EnableAchievements {
		opts = append(opts, ledger.WithPublisher(queue))
	}
	l, err := ledger.New(repo, cat, cfg.Ledger, opts...)
	if err != nil {
		return nil, err
	}

	sim, err := mdg.NewSimulator(cat, cfg.Simulator, mdg.WithSink(store), mdg.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	eval, err := achievement.NewEvaluator(store)
	if err != nil {
		return nil, err
	}
	worker, err := achievement.NewWorker(eval, l, store, metrics)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:       cfg,
		store:     store,
		Catalog:   cat,
		Ledger:    l,
		Limits:    limits,
		Simulator: sim,
		Queue:     queue,
		Worker:    worker,
		Metrics:   metrics,
	}, nil
}

// loadCatalog seeds the catalog from config and resumes the last persisted price of every
// configured symbol.
func loadCatalog(ctx context.Context, instruments []schema.Instrument, store Store) (*catalog.Catalog, error) {
	stored, err := store.ListInstruments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list instruments")
	}
	last := make(map[string]schema.Instrument, len(stored))
	for _, inst := range stored {
		last[inst.Symbol] = inst
	}

	resumed := 0
	seeded := make([]schema.Instrument, 0, len(instruments))
	for _, inst := range instruments {
		if prev, ok := last[inst.Symbol]; ok && prev.Price.Sign() > 0 {
			inst.Price = prev.Price
			inst.PrevPrice = prev.PrevPrice
			inst.Change = prev.Change
			inst.ChangePercent = prev.ChangePercent
			inst.UpdatedAt = prev.UpdatedAt
			resumed++
		}
		seeded = append(seeded, inst)
	}
	cat, err := catalog.New(seeded...)
	if err != nil {
		return nil, err
	}
	logs.Infof("catalog loaded, instruments: %d, resumed: %d", len(seeded), resumed)
	return cat, nil
}

// Run starts the simulator and the achievement worker and blocks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.cfg.Features.EnableSimulator {
		if err := s.Simulator.Start(gctx); err != nil {
			return err
		}
	}
	if s.cfg.Features.EnableAchievements {
		g.Go(func() error {
			s.Worker.Run(gctx, s.Queue)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.Simulator.Stop()
		s.Queue.Close()
		return nil
	})
	return g.Wait()
}

// RecordGameScore adds to an account's game counter and schedules an achievement evaluation.
func (s *Service) RecordGameScore(ctx context.Context, accountID string, kind schema.GameKind, delta int64) (schema.GameCounters, error) {
	if !kind.Valid() {
		return schema.GameCounters{}, errors.Wrap(exception.ErrInvalidArgument, "game kind").With("kind", string(kind))
	}
	if delta <= 0 {
		return schema.GameCounters{}, errors.Wrap(exception.ErrInvalidQuantity, "game score").With("delta", delta)
	}
	if _, err := s.Ledger.Account(ctx, accountID); err != nil {
		return schema.GameCounters{}, err
	}
	if err := s.store.AddGameScore(ctx, accountID, kind, delta); err != nil {
		return schema.GameCounters{}, errors.Wrap(exception.ErrPersistenceFailure, "add game score").
			With("account", accountID).
			With("cause", err.Error())
	}
	counters, err := s.store.GameCounters(ctx, accountID)
	if err != nil {
		return schema.GameCounters{}, errors.Wrap(exception.ErrPersistenceFailure, "game counters").
			With("account", accountID).
			With("cause", err.Error())
	}
	if s.cfg.Features.EnableAchievements {
		if err := s.Queue.TryPublish(schema.NewEvent(schema.EventGameScore, accountID, 0, time.Now().UTC())); err != nil {
			s.Metrics.IncQueueDrop()
			logs.Warnf("game score event dropped, account: %s, err: %+v", accountID, err)
		}
	}
	return counters, nil
}

// Achievements evaluates and returns the achievements of an account.
func (s *Service) Achievements(ctx context.Context, accountID string) (achievement.Result, error) {
	return s.Worker.Refresh(ctx, accountID)
}

// UpdateLimits replaces the pre-trade order limits of the running ledger.
func (s *Service) UpdateLimits(cfg risk.Config) {
	s.Limits.SetConfig(cfg)
	logs.Infof("order limits updated, killSwitch: %t, maxOrderQty: %d", cfg.KillSwitch, cfg.MaxOrderQty)
}

// Currency returns the display currency.
func (s *Service) Currency() string {
	return s.cfg.Currency
}
