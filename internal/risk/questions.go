package risk

// DefaultQuestions returns the onboarding questionnaire. Totals range from 7 to 34.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:     "investment_goal",
			Prompt: "What is your primary goal for investing?",
			Options: []Option{
				{Text: "Preserving my money with minimal risk", Score: 1},
				{Text: "Saving for a specific purchase (house, car, etc.)", Score: 2},
				{Text: "Long-term growth for retirement", Score: 3},
				{Text: "Generating regular income", Score: 2},
				{Text: "Maximizing returns regardless of risk", Score: 4},
			},
		},
		{
			ID:     "risk_comfort",
			Prompt: "How comfortable are you with your investment value decreasing 20% in a single year?",
			Options: scale5(
				"Very uncomfortable",
				"Slightly uncomfortable but manageable",
				"Neutral, it is part of investing",
				"Comfortable, I understand market volatility",
				"Very comfortable, I see it as a buying opportunity",
			),
		},
		{
			ID:      "time_horizon",
			Prompt:  "What is your investment time horizon?",
			Options: scale5("Less than 1 year", "1-3 years", "3-5 years", "5-10 years", "10+ years"),
		},
		{
			ID:     "income_stability",
			Prompt: "How stable is your current income?",
			Options: scale5(
				"Very unstable, irregular income",
				"Somewhat unstable, seasonal work",
				"Moderately stable",
				"Very stable, secure employment",
				"Multiple income sources",
			),
		},
		{
			ID:     "emergency_fund",
			Prompt: "Do you have an emergency fund of 3-6 months of living expenses?",
			Options: scale5(
				"No emergency fund",
				"Less than 1 month saved",
				"1-3 months saved",
				"3-6 months saved",
				"More than 6 months saved",
			),
		},
		{
			ID:     "investment_experience",
			Prompt: "What is your experience with investing?",
			Options: scale5(
				"Complete beginner",
				"Some knowledge but no practical experience",
				"Limited experience with basic investments",
				"Moderate experience with various investments",
				"Experienced investor",
			),
		},
		{
			ID:     "market_reaction",
			Prompt: "If your portfolio lost 15% in a month, what would you most likely do?",
			Options: scale5(
				"Sell everything immediately",
				"Sell some investments to reduce risk",
				"Hold and wait for recovery",
				"Buy more while prices are lower",
				"Analyze the situation and adjust strategy",
			),
		},
	}
}

func scale5(texts ...string) []Option {
	out := make([]Option, len(texts))
	for i, text := range texts {
		out[i] = Option{Text: text, Score: i + 1}
	}
	return out
}
