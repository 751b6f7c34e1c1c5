package mdg

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/schema"
)

const (
	DefaultMeanReversion  = 0.1
	DefaultTrendAmplitude = 0.001
	trendPeriod           = 24 * time.Hour
)

// GeneratorConfig controls the shape of the price walk.
type GeneratorConfig struct {
	Seed           int64   `json:"seed"`
	MeanReversion  float64 `json:"meanReversion"`
	TrendAmplitude float64 `json:"trendAmplitude"`
}

// Generator creates the next raw price of an instrument. It is not safe for concurrent use.
type Generator struct {
	meanReversion  float64
	trendAmplitude float64
	rng            *rand.Rand
}

// NewGenerator creates a generator. A zero seed uses the current time.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	if cfg.MeanReversion < 0 || cfg.MeanReversion >= 1 {
		cfg.MeanReversion = DefaultMeanReversion
	}
	if cfg.TrendAmplitude < 0 {
		cfg.TrendAmplitude = DefaultTrendAmplitude
	}
	return &Generator{
		meanReversion:  cfg.MeanReversion,
		trendAmplitude: cfg.TrendAmplitude,
		rng:            rand.New(rand.NewSource(cfg.Seed)),
	}
}

// RawTick is an unrounded price proposal for one instrument.
type RawTick struct {
	Symbol string
	Prev   decimal.Decimal
	Price  decimal.Decimal
	Delta  float64
	At     time.Time
}

// Next proposes the next price: price * (1 + r - meanReversion*r + trend) with r uniform in
// [-v, v] for the instrument's volatility class.
func (g *Generator) Next(inst schema.Instrument, now time.Time) RawTick {
	v := inst.Volatility.Amplitude()
	r := (g.rng.Float64()*2 - 1) * v
	delta := r - g.meanReversion*r + g.trend(now)
	return RawTick{
		Symbol: inst.Symbol,
		Prev:   inst.Price,
		Price:  inst.Price.Mul(decimal.NewFromFloat(1 + delta)),
		Delta:  delta,
		At:     now,
	}
}

func (g *Generator) trend(now time.Time) float64 {
	if g.trendAmplitude == 0 {
		return 0
	}
	phase := float64(now.UnixMilli()) / float64(trendPeriod.Milliseconds())
	return math.Sin(phase) * g.trendAmplitude
}

// MaxDelta returns the largest fractional move the generator can produce for a class.
func (g *Generator) MaxDelta(v schema.VolatilityClass) float64 {
	return v.Amplitude()*(1-g.meanReversion) + g.trendAmplitude
}
