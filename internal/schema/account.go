package schema

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// RiskProfile buckets an investor's appetite for risk. It is also used as the risk category of
// an instrument.
type RiskProfile uint8

const (
	RiskProfileUnknown RiskProfile = iota
	RiskProfileConservative
	RiskProfileModerate
	RiskProfileAggressive
)

var riskProfileNames = [...]string{
	RiskProfileUnknown:      "",
	RiskProfileConservative: "conservative",
	RiskProfileModerate:     "moderate",
	RiskProfileAggressive:   "aggressive",
}

func (p RiskProfile) String() string {
	if int(p) < len(riskProfileNames) {
		return riskProfileNames[p]
	}
	return ""
}

// ParseRiskProfile parses a profile name. The empty string maps to RiskProfileUnknown.
func ParseRiskProfile(s string) (RiskProfile, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range riskProfileNames {
		if n == name {
			return RiskProfile(i), nil
		}
	}
	return RiskProfileUnknown, errors.Errorf("unknown risk profile: %q", s)
}

func (p RiskProfile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *RiskProfile) UnmarshalText(b []byte) error {
	parsed, err := ParseRiskProfile(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Account is a simulated brokerage account. Balances never go negative and are only mutated
// by the ledger under the account's operation lock.
type Account struct {
	ID             string
	CashBalance    decimal.Decimal
	SavingsBalance decimal.Decimal
	InitialSeed    decimal.Decimal
	RiskProfile    RiskProfile
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GameKind names an ancillary counter fed to the achievement evaluator.
type GameKind string

const (
	GameQuiz             GameKind = "quiz"
	GameMarketPrediction GameKind = "market_prediction"
)

// Valid reports whether the kind is one of the known counters.
func (k GameKind) Valid() bool {
	return k == GameQuiz || k == GameMarketPrediction
}

// GameCounters aggregates learning activity per account.
type GameCounters struct {
	QuizScore          int64
	CorrectPredictions int64
}
