package schema

import "time"

// Answer is the score selected for one questionnaire question.
type Answer struct {
	QuestionID    string
	SelectedScore int
}

// RiskAssessment is the scored result of a completed questionnaire.
type RiskAssessment struct {
	AccountID   string
	Score       int
	Profile     RiskProfile
	AssessedAt  time.Time
	Description string
}
