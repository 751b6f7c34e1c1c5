package api

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/achievement"
	"papertrade/internal/obs"
	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

var maxShares = decimal.NewFromInt(math.MaxInt64)

type tradeRequest struct {
	Symbol string          `json:"symbol"`
	Shares decimal.Decimal `json:"shares"`
}

// wholeShares accepts only positive integral share counts that fit in int64.
func (r tradeRequest) wholeShares() (int64, error) {
	if r.Shares.Sign() <= 0 || !r.Shares.IsInteger() || r.Shares.GreaterThan(maxShares) {
		return 0, errors.Wrap(exception.ErrInvalidQuantity, "trade shares").With("shares", r.Shares.String())
	}
	return r.Shares.IntPart(), nil
}

type transferRequest struct {
	Direction schema.TransferDirection `json:"direction"`
	Amount    decimal.Decimal          `json:"amount"`
}

type answerRequest struct {
	QuestionID    string `json:"questionId"`
	SelectedScore int    `json:"selectedScore"`
}

type assessRequest struct {
	Answers []answerRequest `json:"answers"`
}

type gameRequest struct {
	Kind  schema.GameKind `json:"kind"`
	Delta int64           `json:"delta"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type accountResponse struct {
	ID             string             `json:"id"`
	CashBalance    decimal.Decimal    `json:"cashBalance"`
	SavingsBalance decimal.Decimal    `json:"savingsBalance"`
	InitialSeed    decimal.Decimal    `json:"initialSeed"`
	RiskProfile    schema.RiskProfile `json:"riskProfile"`
	CreatedAt      time.Time          `json:"createdAt"`
}

type holdingResponse struct {
	Symbol          string          `json:"symbol"`
	Shares          int64           `json:"shares"`
	AvgCost         decimal.Decimal `json:"avgCost"`
	CurrentPrice    decimal.Decimal `json:"currentPrice"`
	CurrentValue    decimal.Decimal `json:"currentValue"`
	Invested        decimal.Decimal `json:"invested"`
	GainLoss        decimal.Decimal `json:"gainLoss"`
	GainLossPercent decimal.Decimal `json:"gainLossPercent"`
	PriceStale      bool            `json:"priceStale,omitempty"`
}

type snapshotResponse struct {
	AccountID            string             `json:"accountId"`
	CashBalance          decimal.Decimal    `json:"cashBalance"`
	SavingsBalance       decimal.Decimal    `json:"savingsBalance"`
	Holdings             []holdingResponse  `json:"holdings"`
	HoldingsValue        decimal.Decimal    `json:"holdingsValue"`
	TotalInvested        decimal.Decimal    `json:"totalInvested"`
	TotalValue           decimal.Decimal    `json:"totalValue"`
	TotalValueDisplay    string             `json:"totalValueDisplay"`
	TotalGainLoss        decimal.Decimal    `json:"totalGainLoss"`
	TotalGainLossPercent decimal.Decimal    `json:"totalGainLossPercent"`
	TradeCount           int                `json:"tradeCount"`
	RiskProfile          schema.RiskProfile `json:"riskProfile"`
	TakenAt              time.Time          `json:"takenAt"`
}

type transactionResponse struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      schema.Side     `json:"side"`
	Shares    int64           `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}

type transferResponse struct {
	ID        string                   `json:"id"`
	Direction schema.TransferDirection `json:"direction"`
	Amount    decimal.Decimal          `json:"amount"`
	CreatedAt time.Time                `json:"createdAt"`
}

type instrumentResponse struct {
	Symbol        string                 `json:"symbol"`
	Name          string                 `json:"name"`
	Price         decimal.Decimal        `json:"price"`
	PrevPrice     decimal.Decimal        `json:"prevPrice"`
	Change        decimal.Decimal        `json:"change"`
	ChangePercent decimal.Decimal        `json:"changePercent"`
	Volatility    schema.VolatilityClass `json:"volatility"`
	Risk          schema.RiskProfile     `json:"risk"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type assessmentResponse struct {
	Score       int                `json:"score"`
	Profile     schema.RiskProfile `json:"profile"`
	Description string             `json:"description"`
	AssessedAt  time.Time          `json:"assessedAt"`
}

type alignmentResponse struct {
	Symbol  string `json:"symbol"`
	Aligned bool   `json:"aligned"`
}

type countersResponse struct {
	QuizScore          int64 `json:"quizScore"`
	CorrectPredictions int64 `json:"correctPredictions"`
}

type achievementResponse struct {
	ID          string                     `json:"id"`
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Category    schema.AchievementCategory `json:"category"`
	Progress    decimal.Decimal            `json:"progress"`
	MaxProgress decimal.Decimal            `json:"maxProgress"`
	Unlocked    bool                       `json:"unlocked"`
	UnlockedAt  *time.Time                 `json:"unlockedAt,omitempty"`
}

type achievementsResponse struct {
	Achievements []achievementResponse `json:"achievements"`
	NewUnlocks   []string              `json:"newUnlocks"`
}

type latencyResponse struct {
	Count uint64 `json:"count"`
	MinUs int64  `json:"minUs"`
	MaxUs int64  `json:"maxUs"`
	AvgUs int64  `json:"avgUs"`
}

type metricsResponse struct {
	Trades             map[string]uint64 `json:"trades"`
	Rejections         map[string]uint64 `json:"rejections"`
	Transfers          uint64            `json:"transfers"`
	PricesSimulated    uint64            `json:"pricesSimulated"`
	TicksSkipped       uint64            `json:"ticksSkipped"`
	Unlocks            uint64            `json:"unlocks"`
	EvaluationFailures uint64            `json:"evaluationFailures"`
	QueueDrops         uint64            `json:"queueDrops"`
	LockWait           latencyResponse   `json:"lockWait"`
	Commit             latencyResponse   `json:"commit"`
	Evaluation         latencyResponse   `json:"evaluation"`
}

func toAccount(a schema.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		CashBalance:    a.CashBalance,
		SavingsBalance: a.SavingsBalance,
		InitialSeed:    a.InitialSeed,
		RiskProfile:    a.RiskProfile,
		CreatedAt:      a.CreatedAt,
	}
}

func toSnapshot(s schema.AccountSnapshot, currency string) snapshotResponse {
	holdings := make([]holdingResponse, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		holdings = append(holdings, holdingResponse{
			Symbol:          h.Symbol,
			Shares:          h.Shares,
			AvgCost:         h.AvgCost,
			CurrentPrice:    h.CurrentPrice,
			CurrentValue:    h.CurrentValue,
			Invested:        h.Invested,
			GainLoss:        h.GainLoss,
			GainLossPercent: h.GainLossPercent,
			PriceStale:      h.PriceStale,
		})
	}
	return snapshotResponse{
		AccountID:            s.AccountID,
		CashBalance:          s.CashBalance,
		SavingsBalance:       s.SavingsBalance,
		Holdings:             holdings,
		HoldingsValue:        s.HoldingsValue,
		TotalInvested:        s.TotalInvested,
		TotalValue:           s.TotalValue,
		TotalValueDisplay:    schema.FormatMoney(s.TotalValue, currency),
		TotalGainLoss:        s.TotalGainLoss,
		TotalGainLossPercent: s.TotalGainLossPercent,
		TradeCount:           s.TradeCount,
		RiskProfile:          s.RiskProfile,
		TakenAt:              s.TakenAt,
	}
}

func toTransaction(t schema.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Symbol:    t.Symbol,
		Side:      t.Side,
		Shares:    t.Shares,
		Price:     t.Price,
		Total:     t.Total,
		CreatedAt: t.CreatedAt,
	}
}

func toTransfer(t schema.Transfer) transferResponse {
	return transferResponse{ID: t.ID, Direction: t.Direction, Amount: t.Amount, CreatedAt: t.CreatedAt}
}

func toInstrument(i schema.Instrument) instrumentResponse {
	return instrumentResponse{
		Symbol:        i.Symbol,
		Name:          i.Name,
		Price:         i.Price,
		PrevPrice:     i.PrevPrice,
		Change:        i.Change,
		ChangePercent: i.ChangePercent,
		Volatility:    i.Volatility,
		Risk:          i.Risk,
		UpdatedAt:     i.UpdatedAt,
	}
}

func toAchievements(res achievement.Result) achievementsResponse {
	out := achievementsResponse{
		Achievements: make([]achievementResponse, 0, len(res.Achievements)),
		NewUnlocks:   make([]string, 0, len(res.NewUnlocks)),
	}
	for _, a := range res.Achievements {
		item := achievementResponse{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Category:    a.Category,
			Progress:    a.Progress,
			MaxProgress: a.MaxProgress,
			Unlocked:    a.Unlocked,
		}
		if a.Unlocked {
			at := a.UnlockedAt
			item.UnlockedAt = &at
		}
		out.Achievements = append(out.Achievements, item)
	}
	for _, a := range res.NewUnlocks {
		out.NewUnlocks = append(out.NewUnlocks, a.ID)
	}
	return out
}

func toLatency(l obs.LatencySnapshot) latencyResponse {
	return latencyResponse{
		Count: l.Count,
		MinUs: l.Min.Microseconds(),
		MaxUs: l.Max.Microseconds(),
		AvgUs: l.Avg.Microseconds(),
	}
}

func toMetrics(s obs.Snapshot) metricsResponse {
	return metricsResponse{
		Trades:             s.Trades,
		Rejections:         s.Rejections,
		Transfers:          s.Transfers,
		PricesSimulated:    s.PricesSimulated,
		TicksSkipped:       s.TicksSkipped,
		Unlocks:            s.Unlocks,
		EvaluationFailures: s.EvaluationFailures,
		QueueDrops:         s.QueueDrops,
		LockWait:           toLatency(s.LockWait),
		Commit:             toLatency(s.Commit),
		Evaluation:         toLatency(s.Evaluation),
	}
}
