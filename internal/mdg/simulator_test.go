package mdg

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/catalog"
	"papertrade/internal/obs"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSink struct {
	mu    sync.Mutex
	saved [][]schema.Instrument
}

func (s *recordingSink) SaveInstruments(_ context.Context, instruments []schema.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, instruments)
	return nil
}

func (s *recordingSink) batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestSimulatorMinIntervalGuard(t *testing.T) {
	book, err := catalog.New(catalog.Defaults()...)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	metrics := obs.NewMetrics()

	sim, err := NewSimulator(book, Config{Interval: time.Second, MinInterval: 30 * time.Second, Generator: GeneratorConfig{Seed: 1}},
		WithClock(clock.Now), WithSink(sink), WithMetrics(metrics))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, sim.Interval(), "interval is clamped to the minimum")

	updated, err := sim.Tick(t.Context())
	require.NoError(t, err)
	assert.Len(t, updated, 12)

	clock.Advance(10 * time.Second)
	_, err = sim.Tick(t.Context())
	assert.ErrorIs(t, err, exception.ErrTickTooSoon)

	clock.Advance(20 * time.Second)
	_, err = sim.Tick(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 2, sink.batches())
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(24), snap.PricesSimulated)
	assert.Equal(t, uint64(1), snap.TicksSkipped)

	for _, inst := range book.ListActive() {
		assert.True(t, inst.Price.GreaterThanOrEqual(DefaultFloor), inst.Symbol)
		assert.Equal(t, clock.Now(), inst.UpdatedAt)
	}
}

func TestSimulatorStartStop(t *testing.T) {
	book, err := catalog.New(schema.Instrument{Symbol: "BTC", Price: decimal.NewFromInt(43000), Volatility: schema.VolatilityHigh, Active: true})
	require.NoError(t, err)
	sink := &recordingSink{}

	sim, err := NewSimulator(book, Config{Interval: time.Hour, MinInterval: time.Hour}, WithSink(sink))
	require.NoError(t, err)

	require.NoError(t, sim.Start(t.Context()))
	assert.True(t, sim.Running())
	assert.ErrorIs(t, sim.Start(t.Context()), exception.ErrSimulatorRunning)

	assert.Eventually(t, func() bool { return sink.batches() == 1 }, time.Second, 5*time.Millisecond)

	sim.Stop()
	assert.False(t, sim.Running())
	sim.Stop()

	require.NoError(t, sim.Start(t.Context()))
	sim.Stop()
}

func TestManualTickHasNoSlack(t *testing.T) {
	book, err := catalog.New(catalog.Defaults()...)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	sim, err := NewSimulator(book, Config{MinInterval: 30 * time.Second}, WithClock(clock.Now))
	require.NoError(t, err)

	_, err = sim.Tick(t.Context())
	require.NoError(t, err)

	clock.Advance(30*time.Second - 100*time.Millisecond)
	_, err = sim.Tick(t.Context())
	require.ErrorIs(t, err, exception.ErrTickTooSoon)

	_, err = sim.tick(t.Context(), tickJitter)
	require.NoError(t, err, "the run loop tolerates ticker wake-up latency")

	clock.Advance(30 * time.Second)
	_, err = sim.Tick(t.Context())
	require.NoError(t, err)
}

func TestSimulatorParentCancelEndsRun(t *testing.T) {
	book, err := catalog.New(schema.Instrument{Symbol: "BTC", Price: decimal.NewFromInt(43000), Volatility: schema.VolatilityHigh, Active: true})
	require.NoError(t, err)
	sim, err := NewSimulator(book, Config{Interval: time.Hour, MinInterval: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, sim.Start(ctx))
	assert.True(t, sim.Running())

	cancel()
	assert.Eventually(t, func() bool { return !sim.Running() }, time.Second, 5*time.Millisecond)

	require.NoError(t, sim.Start(t.Context()))
	assert.True(t, sim.Running())
	sim.Stop()
	assert.False(t, sim.Running())
}

func TestSimulatorRejectsEmptyCatalog(t *testing.T) {
	book, err := catalog.New()
	require.NoError(t, err)
	sim, err := NewSimulator(book, Config{})
	require.NoError(t, err)
	_, err = sim.Tick(t.Context())
	assert.ErrorIs(t, err, exception.ErrEmptyInstruments)

	_, err = NewSimulator(nil, Config{})
	assert.ErrorIs(t, err, exception.ErrNilInstance)
}
