package services

import (
	"fmt"
	"testing"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeQuestions(n, optionsPer int) []*models.Question {
	questions := make([]*models.Question, n)
	for i := 0; i < n; i++ {
		q := &models.Question{ID: fmt.Sprintf("question-%02d", i)}
		for j := 0; j < optionsPer; j++ {
			q.Options = append(q.Options, models.Option{
				ID:        fmt.Sprintf("question-%02d-option-%d", i, j),
				Position:  j + 1,
				IsCorrect: j == 0,
			})
		}
		questions[i] = q
	}
	return questions
}

func TestBuildAttemptSequence_Deterministic(t *testing.T) {
	questions := makeQuestions(10, 4)

	first := buildAttemptSequence("attempt-abc", questions)
	second := buildAttemptSequence("attempt-abc", questions)

	assert.Equal(t, first.QuestionOrder, second.QuestionOrder)
	assert.Equal(t, first.OptionOrders, second.OptionOrders)
}

func TestBuildAttemptSequence_IsPermutation(t *testing.T) {
	questions := makeQuestions(8, 3)

	seq := buildAttemptSequence("attempt-xyz", questions)

	require.Len(t, seq.QuestionOrder, 8)
	seen := make(map[string]bool)
	for _, id := range seq.QuestionOrder {
		assert.False(t, seen[id], "duplicate question id %s", id)
		seen[id] = true
	}
	for _, q := range questions {
		assert.True(t, seen[q.ID], "question %s missing from order", q.ID)

		order := seq.OptionOrders[q.ID]
		require.Len(t, order, len(q.Options))
		optSeen := make(map[string]bool)
		for _, id := range order {
			optSeen[id] = true
		}
		for _, o := range q.Options {
			assert.True(t, optSeen[o.ID])
		}
	}
}

func TestBuildAttemptSequence_DiffersAcrossAttempts(t *testing.T) {
	questions := makeQuestions(12, 4)

	a := buildAttemptSequence("attempt-one", questions)
	b := buildAttemptSequence("attempt-two", questions)

	assert.NotEqual(t, a.QuestionOrder, b.QuestionOrder)
}

func TestBuildAttemptSequence_InputUnmodified(t *testing.T) {
	questions := makeQuestions(6, 2)

	buildAttemptSequence("attempt-abc", questions)

	for i, q := range questions {
		assert.Equal(t, fmt.Sprintf("question-%02d", i), q.ID)
	}
}

func TestOrderQuestions_MatchesPersistedSequence(t *testing.T) {
	questions := makeQuestions(5, 4)
	seq := buildAttemptSequence("attempt-ordered", questions)

	// Simulate a fresh load in storage order.
	ordered := orderQuestions(questions, seq)

	require.Len(t, ordered, 5)
	for i, q := range ordered {
		assert.Equal(t, seq.QuestionOrder[i], q.ID)
		optionIDs := make([]string, len(q.Options))
		for j, o := range q.Options {
			optionIDs[j] = o.ID
		}
		assert.Equal(t, seq.OptionOrders[q.ID], optionIDs)
	}
}

func TestOrderOptions_KeepsUnknownOptionsAtTail(t *testing.T) {
	options := []models.Option{
		{ID: "opt-a"},
		{ID: "opt-b"},
		{ID: "opt-new"},
	}

	ordered := orderOptions(options, []string{"opt-b", "opt-a"})

	require.Len(t, ordered, 3)
	assert.Equal(t, "opt-b", ordered[0].ID)
	assert.Equal(t, "opt-a", ordered[1].ID)
	assert.Equal(t, "opt-new", ordered[2].ID)
}
