package mdg

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"papertrade/internal/schema"
)

func TestGeneratorBoundedWalk(t *testing.T) {
	gen := NewGenerator(GeneratorConfig{Seed: 42, MeanReversion: 0.1, TrendAmplitude: 0.001})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, vol := range []schema.VolatilityClass{schema.VolatilityLow, schema.VolatilityCommodity, schema.VolatilityDefault, schema.VolatilityHigh} {
		inst := schema.Instrument{Symbol: "X", Price: decimal.NewFromInt(100), Volatility: vol}
		limit := gen.MaxDelta(vol) + 1e-12
		for i := 0; i < 2000; i++ {
			tick := gen.Next(inst, now.Add(time.Duration(i)*time.Minute))
			if tick.Delta > limit || tick.Delta < -limit {
				t.Fatalf("delta out of bounds: vol=%s delta=%f limit=%f", vol, tick.Delta, limit)
			}
		}
	}
}

func TestGeneratorDeterministicSeed(t *testing.T) {
	inst := schema.Instrument{Symbol: "AAPL", Price: decimal.NewFromInt(180)}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := NewGenerator(GeneratorConfig{Seed: 7})
	b := NewGenerator(GeneratorConfig{Seed: 7})
	for i := 0; i < 10; i++ {
		ta, tb := a.Next(inst, now), b.Next(inst, now)
		assert.True(t, ta.Price.Equal(tb.Price))
	}
}

func TestNormalizerFloorAndScale(t *testing.T) {
	n := NewNormalizer(decimal.Zero)
	assert.True(t, n.Normalize(RawTick{Price: decimal.RequireFromString("0.0001")}).Equal(DefaultFloor))
	assert.True(t, n.Normalize(RawTick{Price: decimal.RequireFromString("-3")}).Equal(DefaultFloor))
	assert.Equal(t, "101.2346", n.Normalize(RawTick{Price: decimal.RequireFromString("101.23456")}).String())
}
