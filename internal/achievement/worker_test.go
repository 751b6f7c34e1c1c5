package achievement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/bus"
	"papertrade/internal/catalog"
	"papertrade/internal/ledger"
	"papertrade/internal/obs"
	"papertrade/internal/schema"
	"papertrade/internal/store"
	"papertrade/pkg/exception"
)

func TestWorkerEvaluatesLedgerEvents(t *testing.T) {
	repo := store.NewMemory()
	c, err := catalog.New(catalog.Defaults()...)
	require.NoError(t, err)
	queue := bus.NewQueue(16)
	metrics := obs.NewMetrics()
	l, err := ledger.New(repo, c, ledger.Config{}, ledger.WithPublisher(queue), ledger.WithMetrics(metrics))
	require.NoError(t, err)
	eval, err := NewEvaluator(repo)
	require.NoError(t, err)
	w, err := NewWorker(eval, l, repo, metrics)
	require.NoError(t, err)
	notes := w.Subscribe(8)

	ctx := t.Context()
	acc, err := l.OpenAccount(ctx)
	require.NoError(t, err)
	for _, symbol := range []string{"AAPL", "BND", "SPY"} {
		_, err := l.Buy(ctx, acc.ID, symbol, 1)
		require.NoError(t, err)
	}
	queue.Close()

	done := make(chan struct{})
	go func() {
		w.Run(ctx, queue)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the queue")
	}

	var got []string
	for len(notes) > 0 {
		n := <-notes
		assert.Equal(t, acc.ID, n.AccountID)
		got = append(got, n.Achievement.ID)
	}
	assert.ElementsMatch(t, []string{"first_trade", "diversified_investor"}, got)
	assert.Equal(t, uint64(2), metrics.Snapshot().Unlocks)
	assert.Zero(t, metrics.Snapshot().EvaluationFailures)
}

type missingLedger struct{}

func (missingLedger) Snapshot(context.Context, string) (schema.AccountSnapshot, error) {
	return schema.AccountSnapshot{}, exception.ErrAccountNotFound
}

func TestWorkerCountsFailures(t *testing.T) {
	repo := store.NewMemory()
	eval, err := NewEvaluator(repo)
	require.NoError(t, err)
	metrics := obs.NewMetrics()
	w, err := NewWorker(eval, missingLedger{}, repo, metrics)
	require.NoError(t, err)

	queue := bus.NewQueue(2)
	require.NoError(t, queue.TryPublish(schema.NewEvent(schema.EventTrade, "ghost", 1, time.Now())))
	queue.Close()
	w.Run(t.Context(), queue)

	assert.Equal(t, uint64(1), metrics.Snapshot().EvaluationFailures)
}

type fixedLedger struct {
	snap schema.AccountSnapshot
}

func (f fixedLedger) Snapshot(context.Context, string) (schema.AccountSnapshot, error) {
	return f.snap, nil
}

func TestRefreshNotifiesUnlocksBeforeFailure(t *testing.T) {
	repo := &failingUnlocks{Memory: store.NewMemory(), failOn: 2}
	eval, err := NewEvaluator(repo)
	require.NoError(t, err)
	metrics := obs.NewMetrics()
	w, err := NewWorker(eval, fixedLedger{snap: stateWith(3, 3, "10000", "0").Snapshot}, repo.Memory, metrics)
	require.NoError(t, err)
	notes := w.Subscribe(8)

	res, err := w.Refresh(t.Context(), "acc-1")
	require.ErrorIs(t, err, exception.ErrPersistenceFailure)
	assert.Equal(t, []string{"first_trade"}, ids(res.NewUnlocks))
	require.Len(t, notes, 1)
	assert.Equal(t, "first_trade", (<-notes).Achievement.ID)
	assert.Equal(t, uint64(1), metrics.Snapshot().Unlocks)

	_, err = w.Refresh(t.Context(), "acc-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "diversified_investor", (<-notes).Achievement.ID)
	assert.Equal(t, uint64(2), metrics.Snapshot().Unlocks)
}
