package risk

import (
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

const (
	conservativeMax = 16
	moderateMax     = 26
)

// Option is one selectable answer of a question.
type Option struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Question is one entry of the questionnaire.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Options []Option `json:"options"`
}

// Questionnaire scores answer sets into a risk profile.
type Questionnaire struct {
	questions []Question
	index     map[string]int
}

// NewQuestionnaire builds a questionnaire from questions.
func NewQuestionnaire(questions []Question) (*Questionnaire, error) {
	if len(questions) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "questionnaire has no questions")
	}
	q := &Questionnaire{questions: questions, index: make(map[string]int, len(questions))}
	for i, question := range questions {
		if question.ID == "" || len(question.Options) == 0 {
			return nil, errors.Wrap(exception.ErrInvalidArgument, "questionnaire question").With("index", i)
		}
		if _, dup := q.index[question.ID]; dup {
			return nil, errors.Wrap(exception.ErrInvalidArgument, "duplicate question").With("id", question.ID)
		}
		q.index[question.ID] = i
	}
	return q, nil
}

// Questions returns the questions in display order.
func (q *Questionnaire) Questions() []Question {
	out := make([]Question, len(q.questions))
	copy(out, q.questions)
	return out
}

// Score sums the selected scores. Every question must be answered exactly once with a score
// one of its options offers.
func (q *Questionnaire) Score(answers []schema.Answer) (int, error) {
	seen := make(map[string]struct{}, len(answers))
	total := 0
	for _, a := range answers {
		i, ok := q.index[a.QuestionID]
		if !ok {
			return 0, errors.Wrap(exception.ErrInvalidAnswer, "unknown question").With("question", a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return 0, errors.Wrap(exception.ErrInvalidAnswer, "duplicate answer").With("question", a.QuestionID)
		}
		if !offers(q.questions[i], a.SelectedScore) {
			return 0, errors.Wrap(exception.ErrInvalidAnswer, "score not offered").
				With("question", a.QuestionID).
				With("score", a.SelectedScore)
		}
		seen[a.QuestionID] = struct{}{}
		total += a.SelectedScore
	}
	if len(seen) != len(q.questions) {
		return 0, errors.Wrap(exception.ErrIncompleteAssessment, "score answers").
			With("answered", len(seen)).
			With("questions", len(q.questions))
	}
	return total, nil
}

// Assess scores answers and buckets the total.
func (q *Questionnaire) Assess(answers []schema.Answer) (int, schema.RiskProfile, error) {
	total, err := q.Score(answers)
	if err != nil {
		return 0, schema.RiskProfileUnknown, err
	}
	return total, Bucket(total), nil
}

func offers(question Question, score int) bool {
	for _, opt := range question.Options {
		if opt.Score == score {
			return true
		}
	}
	return false
}

// Bucket maps a questionnaire total to a profile.
func Bucket(total int) schema.RiskProfile {
	switch {
	case total <= conservativeMax:
		return schema.RiskProfileConservative
	case total <= moderateMax:
		return schema.RiskProfileModerate
	default:
		return schema.RiskProfileAggressive
	}
}

// Aligned reports whether an instrument's risk category suits an investor profile. Only a
// conservative investor holding an aggressive instrument is misaligned; an unassessed profile
// is treated as aligned.
func Aligned(profile, instrumentRisk schema.RiskProfile) bool {
	return !(profile == schema.RiskProfileConservative && instrumentRisk == schema.RiskProfileAggressive)
}

// Describe returns the display description of a profile.
func Describe(profile schema.RiskProfile) string {
	switch profile {
	case schema.RiskProfileConservative:
		return "You prefer stability and capital preservation over high returns. Target return 5-8%."
	case schema.RiskProfileModerate:
		return "You seek a balance between growth and stability. Target return 8-12%."
	case schema.RiskProfileAggressive:
		return "You accept high volatility for higher long-term returns. Target return 12-18%."
	default:
		return ""
	}
}
