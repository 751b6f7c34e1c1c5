package mdg

import (
	"github.com/shopspring/decimal"
)

const (
	// PriceScale is the number of decimal places kept on simulated prices.
	PriceScale = 4
)

// DefaultFloor is the smallest price the simulator will publish.
var DefaultFloor = decimal.New(1, -2)

// Normalizer rounds raw ticks and clamps them to the price floor.
type Normalizer struct {
	floor decimal.Decimal
}

// NewNormalizer creates a normalizer. A non-positive floor uses DefaultFloor.
func NewNormalizer(floor decimal.Decimal) *Normalizer {
	if floor.Sign() <= 0 {
		floor = DefaultFloor
	}
	return &Normalizer{floor: floor}
}

// Normalize returns the publishable price of a raw tick.
func (n *Normalizer) Normalize(tick RawTick) decimal.Decimal {
	price := tick.Price.Round(PriceScale)
	return decimal.Max(price, n.floor)
}
