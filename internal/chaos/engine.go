package chaos

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"time"

	"github.com/yanun0323/errors"
)

// ErrInjected is returned for a commit failed on purpose.
var ErrInjected = stderrors.New("chaos: injected commit failure")

// Config controls fault injection.
type Config struct {
	Seed     int64         `json:"seed"`
	FailRate float64       `json:"failRate"`
	MaxDelay time.Duration `json:"-"`
}

// Engine decides, per call, whether to delay or fail. It is safe for concurrent use.
type Engine struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.FailRate < 0 || c.FailRate > 1 {
		return errors.Errorf("failRate must be between 0 and 1")
	}
	if c.MaxDelay < 0 {
		return errors.Errorf("maxDelay must be >= 0")
	}
	return nil
}

// Enabled reports whether the engine injects anything.
func (c Config) Enabled() bool {
	return c.FailRate > 0 || c.MaxDelay > 0
}

// Inject sleeps for a random delay up to MaxDelay, then fails with probability FailRate.
func (e *Engine) Inject(ctx context.Context, op string) error {
	if e == nil {
		return nil
	}
	delay, fail := e.roll()
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "chaos delay").With("op", op)
		case <-timer.C:
		}
	}
	if fail {
		return errors.Wrap(ErrInjected, op)
	}
	return nil
}

func (e *Engine) roll() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var delay time.Duration
	if e.cfg.MaxDelay > 0 {
		delay = time.Duration(e.rng.Int63n(e.cfg.MaxDelay.Nanoseconds() + 1))
	}
	fail := e.cfg.FailRate > 0 && e.rng.Float64() < e.cfg.FailRate
	return delay, fail
}
