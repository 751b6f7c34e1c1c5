package mdg

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"papertrade/internal/obs"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

const (
	DefaultInterval    = 30 * time.Second
	DefaultMinInterval = 30 * time.Second

	// tickJitter absorbs ticker wake-up latency in the run loop. Manual ticks get no slack.
	tickJitter = 250 * time.Millisecond
)

// PriceBook is the catalog surface the simulator writes to.
type PriceBook interface {
	ListActive() []schema.Instrument
	UpdatePrice(symbol string, price decimal.Decimal, at time.Time) (schema.Instrument, error)
}

// PriceSink persists the prices of a tick.
type PriceSink interface {
	SaveInstruments(ctx context.Context, instruments []schema.Instrument) error
}

// Config controls the simulator schedule.
type Config struct {
	Interval    time.Duration
	MinInterval time.Duration
	Generator   GeneratorConfig
}

// Simulator drives the price walk on its own goroutine.
type Simulator struct {
	cfg     Config
	book    PriceBook
	sink    PriceSink
	metrics *obs.Metrics
	gen     *Generator
	norm    *Normalizer
	now     func() time.Time

	mu       sync.Mutex
	lastTick time.Time

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a simulator.
type Option func(*Simulator)

// WithSink persists every tick into sink.
func WithSink(sink PriceSink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithMetrics records tick counters.
func WithMetrics(m *obs.Metrics) Option {
	return func(s *Simulator) { s.metrics = m }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator creates a stopped simulator. The interval is never shorter than MinInterval.
func NewSimulator(book PriceBook, cfg Config, opts ...Option) (*Simulator, error) {
	if book == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "simulator price book")
	}
	if cfg.MinInterval < 0 {
		return nil, errors.Errorf("minInterval must be >= 0, got %s", cfg.MinInterval)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < cfg.MinInterval {
		cfg.Interval = cfg.MinInterval
	}
	s := &Simulator{
		cfg:  cfg,
		book: book,
		gen:  NewGenerator(cfg.Generator),
		norm: NewNormalizer(DefaultFloor),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Interval returns the effective tick interval.
func (s *Simulator) Interval() time.Duration {
	return s.cfg.Interval
}

// Tick advances every active instrument by one step. A tick that arrives sooner than
// MinInterval after the previous one is refused with ErrTickTooSoon.
func (s *Simulator) Tick(ctx context.Context) ([]schema.Instrument, error) {
	return s.tick(ctx, 0)
}

func (s *Simulator) tick(ctx context.Context, slack time.Duration) ([]schema.Instrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.lastTick.IsZero() && now.Sub(s.lastTick)+slack < s.cfg.MinInterval {
		s.metrics.IncTickSkipped()
		return nil, errors.Wrap(exception.ErrTickTooSoon, "simulator tick").With("since", now.Sub(s.lastTick).String())
	}

	active := s.book.ListActive()
	if len(active) == 0 {
		return nil, exception.ErrEmptyInstruments
	}
	updated := make([]schema.Instrument, 0, len(active))
	for _, inst := range active {
		raw := s.gen.Next(inst, now)
		next, err := s.book.UpdatePrice(inst.Symbol, s.norm.Normalize(raw), now)
		if err != nil {
			logs.Warnf("simulator update %s, err: %+v", inst.Symbol, err)
			continue
		}
		updated = append(updated, next)
	}
	s.lastTick = now
	s.metrics.IncTick(len(updated))

	if s.sink != nil && len(updated) != 0 {
		if err := s.sink.SaveInstruments(ctx, updated); err != nil {
			return updated, errors.Wrap(err, "save simulated prices")
		}
	}
	return updated, nil
}

// Start launches the tick loop. The first tick happens immediately.
func (s *Simulator) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return exception.ErrSimulatorRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, s.done)
	logs.Infof("simulator started, interval: %s", s.cfg.Interval)
	return nil
}

// Stop halts the tick loop and waits for it to exit. It is safe to call on a stopped simulator.
func (s *Simulator) Stop() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	logs.Info("simulator stopped")
}

// Running reports whether the tick loop is active.
func (s *Simulator) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.cancel != nil
}

func (s *Simulator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer s.exited(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tickLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickLogged(ctx)
		}
	}
}

// exited clears the run state when the loop ends on its own, e.g. the parent ctx was cancelled.
func (s *Simulator) exited(done chan struct{}) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done != done {
		return
	}
	s.cancel()
	s.cancel, s.done = nil, nil
}

func (s *Simulator) tickLogged(ctx context.Context) {
	_, err := s.tick(ctx, tickJitter)
	switch {
	case err == nil, ctx.Err() != nil:
	case stderrors.Is(err, exception.ErrTickTooSoon):
		logs.Warnf("simulator tick skipped, err: %+v", err)
	default:
		logs.Errorf("simulator tick, err: %+v", err)
	}
}
