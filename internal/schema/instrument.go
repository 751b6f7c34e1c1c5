package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// VolatilityClass selects the per-tick amplitude of the price walk.
type VolatilityClass uint8

const (
	VolatilityDefault VolatilityClass = iota
	VolatilityLow
	VolatilityCommodity
	VolatilityHigh
)

var volatilityNames = [...]string{
	VolatilityDefault:   "default",
	VolatilityLow:       "low",
	VolatilityCommodity: "commodity",
	VolatilityHigh:      "high",
}

var volatilityAmplitudes = [...]float64{
	VolatilityDefault:   0.02,
	VolatilityLow:       0.005,
	VolatilityCommodity: 0.015,
	VolatilityHigh:      0.05,
}

func (v VolatilityClass) String() string {
	if int(v) < len(volatilityNames) {
		return volatilityNames[v]
	}
	return volatilityNames[VolatilityDefault]
}

// Amplitude returns the maximum fractional move of a single tick.
func (v VolatilityClass) Amplitude() float64 {
	if int(v) < len(volatilityAmplitudes) {
		return volatilityAmplitudes[v]
	}
	return volatilityAmplitudes[VolatilityDefault]
}

func (v VolatilityClass) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *VolatilityClass) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	if name == "" {
		*v = VolatilityDefault
		return nil
	}
	for i, n := range volatilityNames {
		if n == name {
			*v = VolatilityClass(i)
			return nil
		}
	}
	return errors.Errorf("unknown volatility class: %q", string(b))
}

// Instrument is a tradable symbol with its latest simulated price.
type Instrument struct {
	Symbol        string
	Name          string
	Price         decimal.Decimal
	PrevPrice     decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	Volatility    VolatilityClass
	Risk          RiskProfile
	Active        bool
	UpdatedAt     time.Time
}
