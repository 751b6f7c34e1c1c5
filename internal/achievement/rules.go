package achievement

import (
	"github.com/shopspring/decimal"

	"papertrade/internal/schema"
)

// State is everything the rules read.
type State struct {
	Snapshot schema.AccountSnapshot
	Counters schema.GameCounters
}

// Rule is one achievement. Progress is clamped to [0, Max]; the rule holds once it reaches Max.
type Rule struct {
	ID          string
	Title       string
	Description string
	Category    schema.AchievementCategory
	Max         decimal.Decimal
	Progress    func(State) decimal.Decimal
}

func (r Rule) progress(st State) decimal.Decimal {
	p := r.Progress(st)
	if p.Sign() < 0 {
		return decimal.Zero
	}
	return decimal.Min(p, r.Max)
}

func tradeCount(st State) decimal.Decimal {
	return decimal.NewFromInt(int64(st.Snapshot.TradeCount))
}

func holdingCount(st State) decimal.Decimal {
	return decimal.NewFromInt(int64(len(st.Snapshot.Holdings)))
}

// Rules returns the fixed rule table in display order.
func Rules() []Rule {
	return []Rule{
		{
			ID:          "first_trade",
			Title:       "First Trade",
			Description: "Complete your first stock purchase",
			Category:    schema.CategoryTrading,
			Max:         decimal.NewFromInt(1),
			Progress:    tradeCount,
		},
		{
			ID:          "diversified_investor",
			Title:       "Diversified Investor",
			Description: "Own 3 different instruments at once",
			Category:    schema.CategoryPortfolio,
			Max:         decimal.NewFromInt(3),
			Progress:    holdingCount,
		},
		{
			ID:          "portfolio_builder",
			Title:       "Portfolio Builder",
			Description: "Own 5 different instruments at once",
			Category:    schema.CategoryPortfolio,
			Max:         decimal.NewFromInt(5),
			Progress:    holdingCount,
		},
		{
			ID:          "day_trader",
			Title:       "Day Trader",
			Description: "Complete 25 trades in total",
			Category:    schema.CategoryTrading,
			Max:         decimal.NewFromInt(25),
			Progress:    tradeCount,
		},
		{
			ID:          "profit_maker",
			Title:       "Profit Maker",
			Description: "Achieve $1,000 in total gains",
			Category:    schema.CategoryMilestone,
			Max:         decimal.NewFromInt(1000),
			Progress:    func(st State) decimal.Decimal { return st.Snapshot.TotalGainLoss },
		},
		{
			ID:          "high_roller",
			Title:       "High Roller",
			Description: "Have a portfolio worth $15,000 or more",
			Category:    schema.CategoryMilestone,
			Max:         decimal.NewFromInt(15000),
			Progress:    func(st State) decimal.Decimal { return st.Snapshot.TotalValue },
		},
		{
			ID:          "quiz_master",
			Title:       "Quiz Master",
			Description: "Score 100 points in quizzes",
			Category:    schema.CategoryLearning,
			Max:         decimal.NewFromInt(100),
			Progress:    func(st State) decimal.Decimal { return decimal.NewFromInt(st.Counters.QuizScore) },
		},
		{
			ID:          "prediction_expert",
			Title:       "Prediction Expert",
			Description: "Make 10 correct market predictions",
			Category:    schema.CategoryLearning,
			Max:         decimal.NewFromInt(10),
			Progress:    func(st State) decimal.Decimal { return decimal.NewFromInt(st.Counters.CorrectPredictions) },
		},
	}
}
