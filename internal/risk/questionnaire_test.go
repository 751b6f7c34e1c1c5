package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

func answersWith(scores ...int) []schema.Answer {
	qs := DefaultQuestions()
	out := make([]schema.Answer, len(scores))
	for i, s := range scores {
		out[i] = schema.Answer{QuestionID: qs[i].ID, SelectedScore: s}
	}
	return out
}

func TestBucketThresholds(t *testing.T) {
	testCases := []struct {
		total int
		want  schema.RiskProfile
	}{
		{7, schema.RiskProfileConservative},
		{16, schema.RiskProfileConservative},
		{17, schema.RiskProfileModerate},
		{26, schema.RiskProfileModerate},
		{27, schema.RiskProfileAggressive},
		{34, schema.RiskProfileAggressive},
	}
	for _, tc := range testCases {
		assert.Equalf(t, tc.want, Bucket(tc.total), "total %d", tc.total)
	}
}

func TestQuestionnaireAssess(t *testing.T) {
	q, err := NewQuestionnaire(DefaultQuestions())
	require.NoError(t, err)
	require.Len(t, q.Questions(), 7)

	total, profile, err := q.Assess(answersWith(1, 1, 1, 1, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Equal(t, schema.RiskProfileConservative, profile)

	total, profile, err = q.Assess(answersWith(3, 3, 3, 3, 3, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.Equal(t, schema.RiskProfileModerate, profile)

	total, profile, err = q.Assess(answersWith(4, 5, 5, 5, 5, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, 34, total)
	assert.Equal(t, schema.RiskProfileAggressive, profile)
}

func TestQuestionnaireRejects(t *testing.T) {
	q, err := NewQuestionnaire(DefaultQuestions())
	require.NoError(t, err)

	_, err = q.Score(answersWith(1, 1, 1))
	assert.ErrorIs(t, err, exception.ErrIncompleteAssessment)

	_, err = q.Score(nil)
	assert.ErrorIs(t, err, exception.ErrIncompleteAssessment)

	_, err = q.Score(answersWith(5, 1, 1, 1, 1, 1, 1))
	assert.ErrorIs(t, err, exception.ErrInvalidAnswer, "investment_goal offers no 5")

	dup := append(answersWith(1, 1, 1, 1, 1, 1), schema.Answer{QuestionID: "investment_goal", SelectedScore: 1})
	_, err = q.Score(dup)
	assert.ErrorIs(t, err, exception.ErrInvalidAnswer)

	_, err = q.Score(append(answersWith(1, 1, 1, 1, 1, 1, 1), schema.Answer{QuestionID: "favorite_color", SelectedScore: 1}))
	assert.ErrorIs(t, err, exception.ErrInvalidAnswer)

	_, err = NewQuestionnaire(nil)
	assert.ErrorIs(t, err, exception.ErrInvalidArgument)
}

func TestAligned(t *testing.T) {
	profiles := []schema.RiskProfile{schema.RiskProfileUnknown, schema.RiskProfileConservative, schema.RiskProfileModerate, schema.RiskProfileAggressive}
	for _, p := range profiles {
		for _, r := range profiles[1:] {
			want := !(p == schema.RiskProfileConservative && r == schema.RiskProfileAggressive)
			assert.Equalf(t, want, Aligned(p, r), "profile=%s instrument=%s", p, r)
		}
	}
	assert.NotEmpty(t, Describe(schema.RiskProfileModerate))
	assert.Empty(t, Describe(schema.RiskProfileUnknown))
}
