package catalog

import (
	"github.com/shopspring/decimal"

	"papertrade/internal/schema"
)

// Defaults returns the starter instrument universe.
func Defaults() []schema.Instrument {
	return []schema.Instrument{
		starter("AAPL", "Apple Inc.", 180, schema.VolatilityDefault, schema.RiskProfileModerate),
		starter("MSFT", "Microsoft Corporation", 380, schema.VolatilityDefault, schema.RiskProfileModerate),
		starter("TSLA", "Tesla, Inc.", 250, schema.VolatilityHigh, schema.RiskProfileAggressive),
		starter("GOOGL", "Alphabet Inc.", 140, schema.VolatilityDefault, schema.RiskProfileModerate),
		starter("AMZN", "Amazon.com, Inc.", 150, schema.VolatilityDefault, schema.RiskProfileModerate),
		starter("SPY", "SPDR S&P 500 ETF", 445, schema.VolatilityLow, schema.RiskProfileConservative),
		starter("VTI", "Vanguard Total Stock Market ETF", 235, schema.VolatilityLow, schema.RiskProfileConservative),
		starter("BND", "Vanguard Total Bond Market ETF", 102, schema.VolatilityLow, schema.RiskProfileConservative),
		starter("GOLD", "Gold", 2030, schema.VolatilityCommodity, schema.RiskProfileModerate),
		starter("SILVER", "Silver", 24, schema.VolatilityCommodity, schema.RiskProfileModerate),
		starter("BTC", "Bitcoin", 43000, schema.VolatilityHigh, schema.RiskProfileAggressive),
		starter("ETH", "Ethereum", 2600, schema.VolatilityHigh, schema.RiskProfileAggressive),
	}
}

func starter(symbol, name string, price int64, vol schema.VolatilityClass, risk schema.RiskProfile) schema.Instrument {
	p := decimal.NewFromInt(price)
	return schema.Instrument{
		Symbol:     symbol,
		Name:       name,
		Price:      p,
		PrevPrice:  p,
		Volatility: vol,
		Risk:       risk,
		Active:     true,
	}
}
