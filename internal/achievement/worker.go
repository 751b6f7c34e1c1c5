package achievement

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"papertrade/internal/obs"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Source delivers ledger events until ctx is done or the source is closed.
type Source interface {
	Run(ctx context.Context, handler func(schema.LedgerEvent))
}

// Snapshotter values an account.
type Snapshotter interface {
	Snapshot(ctx context.Context, accountID string) (schema.AccountSnapshot, error)
}

// CounterReader reads an account's game counters.
type CounterReader interface {
	GameCounters(ctx context.Context, accountID string) (schema.GameCounters, error)
}

// Notification announces a new unlock.
type Notification struct {
	AccountID   string
	Achievement schema.Achievement
}

// Worker evaluates achievements after ledger mutations. Failures are logged and counted and
// never reach the operation that produced the event.
type Worker struct {
	eval     *Evaluator
	ledger   Snapshotter
	counters CounterReader
	metrics  *obs.Metrics

	mu   sync.RWMutex
	subs []chan Notification
}

// NewWorker creates a worker.
func NewWorker(eval *Evaluator, ledger Snapshotter, counters CounterReader, metrics *obs.Metrics) (*Worker, error) {
	if eval == nil || ledger == nil || counters == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "achievement worker dependencies")
	}
	return &Worker{eval: eval, ledger: ledger, counters: counters, metrics: metrics}, nil
}

// Subscribe returns a channel of new unlocks. Notifications are dropped when the channel is full.
func (w *Worker) Subscribe(buffer int) <-chan Notification {
	ch := make(chan Notification, max(buffer, 1))
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}

// Run consumes events from src until it stops.
func (w *Worker) Run(ctx context.Context, src Source) {
	src.Run(ctx, func(e schema.LedgerEvent) {
		if _, err := w.Refresh(ctx, e.AccountID); err != nil {
			w.metrics.IncEvaluationFailure()
			logs.Errorf("achievement evaluation failed, event: %s, account: %s, err: %+v", e.Type, e.AccountID, err)
		}
	})
}

// Refresh evaluates an account now and notifies subscribers of new unlocks.
func (w *Worker) Refresh(ctx context.Context, accountID string) (Result, error) {
	start := time.Now()
	defer func() { w.metrics.ObserveEvaluation(time.Since(start)) }()

	snap, err := w.ledger.Snapshot(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	counters, err := w.counters.GameCounters(ctx, accountID)
	if err != nil {
		return Result{}, errors.Wrap(exception.ErrPersistenceFailure, "game counters").
			With("account", accountID).
			With("cause", err.Error())
	}
	res, err := w.eval.Evaluate(ctx, accountID, State{Snapshot: snap, Counters: counters})
	for _, a := range res.NewUnlocks {
		w.metrics.IncUnlock()
		logs.Infof("achievement unlocked, account: %s, achievement: %s", accountID, a.ID)
		w.notify(Notification{AccountID: accountID, Achievement: a})
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

func (w *Worker) notify(n Notification) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, ch := range w.subs {
		select {
		case ch <- n:
		default:
		}
	}
}
