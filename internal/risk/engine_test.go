package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

func TestEngineDisabledByDefault(t *testing.T) {
	e := NewEngine(Config{})
	d := e.Evaluate(Intent{AccountID: "a", Side: schema.SideBuy, Shares: 1_000_000, Price: decimal.NewFromInt(43000)}, time.Now())
	assert.True(t, d.Allowed)
	assert.NoError(t, d.Err(Intent{}))

	var nilEngine *Engine
	assert.True(t, nilEngine.Evaluate(Intent{}, time.Now()).Allowed)
}

func TestEngineLimits(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	intent := Intent{AccountID: "a", Symbol: "AAPL", Side: schema.SideBuy, Shares: 10, Price: decimal.NewFromInt(100)}

	d := NewEngine(Config{KillSwitch: true}).Evaluate(intent, now)
	assert.Equal(t, ReasonKillSwitch, d.Reason)
	assert.ErrorIs(t, d.Err(intent), exception.ErrLimitExceeded)

	d = NewEngine(Config{MaxOrderQty: 5}).Evaluate(intent, now)
	assert.Equal(t, ReasonMaxQty, d.Reason)

	d = NewEngine(Config{MaxOrderNotional: decimal.NewFromInt(999)}).Evaluate(intent, now)
	assert.Equal(t, ReasonMaxNotional, d.Reason)

	d = NewEngine(Config{MaxOrderNotional: decimal.NewFromInt(1000)}).Evaluate(intent, now)
	assert.True(t, d.Allowed)
}

func TestEngineRateLimitPerAccount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(Config{OrderRateLimit: 2, OrderRateWindow: time.Minute})
	a := Intent{AccountID: "a", Shares: 1, Price: decimal.NewFromInt(1)}
	b := Intent{AccountID: "b", Shares: 1, Price: decimal.NewFromInt(1)}

	assert.True(t, e.Evaluate(a, now).Allowed)
	assert.True(t, e.Evaluate(a, now.Add(time.Second)).Allowed)
	assert.Equal(t, ReasonRateLimit, e.Evaluate(a, now.Add(2*time.Second)).Reason)
	assert.True(t, e.Evaluate(b, now.Add(2*time.Second)).Allowed, "windows are per account")
	assert.True(t, e.Evaluate(a, now.Add(time.Minute)).Allowed, "window resets")
}

func TestEngineSetConfig(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEngine(Config{})
	intent := Intent{AccountID: "a", Shares: 10, Price: decimal.NewFromInt(1)}
	assert.True(t, e.Evaluate(intent, now).Allowed)

	e.SetConfig(Config{MaxOrderQty: 5})
	assert.Equal(t, int64(5), e.Config().MaxOrderQty)
	assert.Equal(t, ReasonMaxQty, e.Evaluate(intent, now).Reason)

	e.SetConfig(Config{KillSwitch: true})
	assert.Equal(t, ReasonKillSwitch, e.Evaluate(intent, now).Reason)
}
