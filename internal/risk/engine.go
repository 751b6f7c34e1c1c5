package risk

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Reason explains an order limit denial.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKillSwitch
	ReasonRateLimit
	ReasonMaxQty
	ReasonMaxNotional
)

func (r Reason) String() string {
	switch r {
	case ReasonKillSwitch:
		return "kill_switch"
	case ReasonRateLimit:
		return "rate_limit"
	case ReasonMaxQty:
		return "max_qty"
	case ReasonMaxNotional:
		return "max_notional"
	default:
		return "none"
	}
}

// Config defines pre-trade order limits. Zero values disable a limit.
type Config struct {
	KillSwitch       bool            `json:"killSwitch"`
	MaxOrderQty      int64           `json:"maxOrderQty"`
	MaxOrderNotional decimal.Decimal `json:"maxOrderNotional"`
	OrderRateLimit   int             `json:"orderRateLimit"`
	OrderRateWindow  time.Duration   `json:"-"`
}

// Intent is an order about to be executed.
type Intent struct {
	AccountID string
	Symbol    string
	Side      schema.Side
	Shares    int64
	Price     decimal.Decimal
}

// Decision is the outcome of evaluating an intent.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err returns ErrLimitExceeded for a denial, nil otherwise.
func (d Decision) Err(intent Intent) error {
	if d.Allowed {
		return nil
	}
	return errors.Wrap(exception.ErrLimitExceeded, "order limits").
		With("reason", d.Reason.String()).
		With("symbol", intent.Symbol)
}

type rateWindow struct {
	start time.Time
	count int
}

// Engine evaluates order limits. Rate windows are tracked per account.
type Engine struct {
	cfg atomic.Pointer[Config]

	mu    sync.Mutex
	rates map[string]*rateWindow
}

// NewEngine creates an engine with static limits.
func NewEngine(cfg Config) *Engine {
	e := &Engine{rates: make(map[string]*rateWindow)}
	e.cfg.Store(&cfg)
	return e
}

// SetConfig replaces the limits. Rate windows already open are kept.
func (e *Engine) SetConfig(cfg Config) {
	e.cfg.Store(&cfg)
}

// Config returns the active limits.
func (e *Engine) Config() Config {
	return *e.cfg.Load()
}

// Evaluate applies the configured checks to an order intent.
func (e *Engine) Evaluate(intent Intent, now time.Time) Decision {
	if e == nil {
		return Decision{Allowed: true}
	}
	cfg := e.cfg.Load()
	if cfg.KillSwitch {
		return Decision{Reason: ReasonKillSwitch}
	}

	if cfg.OrderRateLimit > 0 && cfg.OrderRateWindow > 0 && !e.allowRate(cfg, intent.AccountID, now) {
		return Decision{Reason: ReasonRateLimit}
	}

	if cfg.MaxOrderQty > 0 && intent.Shares > cfg.MaxOrderQty {
		return Decision{Reason: ReasonMaxQty}
	}

	if cfg.MaxOrderNotional.Sign() > 0 {
		notional := intent.Price.Mul(decimal.NewFromInt(intent.Shares))
		if notional.GreaterThan(cfg.MaxOrderNotional) {
			return Decision{Reason: ReasonMaxNotional}
		}
	}

	return Decision{Allowed: true}
}

func (e *Engine) allowRate(cfg *Config, accountID string, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.rates[accountID]
	if !ok {
		w = &rateWindow{}
		e.rates[accountID] = w
	}
	if w.start.IsZero() || now.Sub(w.start) >= cfg.OrderRateWindow {
		w.start = now
		w.count = 0
	}
	w.count++
	return w.count <= cfg.OrderRateLimit
}
