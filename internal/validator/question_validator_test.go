package validator

import (
	"testing"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func options(correct []bool) []models.Option {
	opts := make([]models.Option, len(correct))
	for i, c := range correct {
		opts[i] = models.Option{
			Content:   "option",
			IsCorrect: c,
			Position:  i + 1,
		}
	}
	return opts
}

func TestValidateOptions(t *testing.T) {
	qv := NewQuestionValidator()

	tests := []struct {
		name      string
		qType     models.QuestionType
		options   []models.Option
		wantValid bool
	}{
		{
			name:      "valid multiple choice",
			qType:     models.MultipleChoice,
			options:   options([]bool{true, false, false, false}),
			wantValid: true,
		},
		{
			name:      "multiple correct answers allowed",
			qType:     models.MultipleChoice,
			options:   options([]bool{true, true, false}),
			wantValid: true,
		},
		{
			name:      "too few options",
			qType:     models.MultipleChoice,
			options:   options([]bool{true}),
			wantValid: false,
		},
		{
			name:      "too many options",
			qType:     models.MultipleChoice,
			options:   options([]bool{true, false, false, false, false}),
			wantValid: false,
		},
		{
			name:      "no correct option",
			qType:     models.MultipleChoice,
			options:   options([]bool{false, false, false}),
			wantValid: false,
		},
		{
			name:      "valid true false",
			qType:     models.TrueFalse,
			options:   options([]bool{true, false}),
			wantValid: true,
		},
		{
			name:      "true false with three options",
			qType:     models.TrueFalse,
			options:   options([]bool{true, false, false}),
			wantValid: false,
		},
		{
			name:      "true false with two correct",
			qType:     models.TrueFalse,
			options:   options([]bool{true, true}),
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := qv.ValidateOptions(tt.qType, tt.options)
			if tt.wantValid {
				assert.Empty(t, errs)
			} else {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestValidateOptions_EmptyContent(t *testing.T) {
	qv := NewQuestionValidator()

	opts := options([]bool{true, false})
	opts[1].Content = ""

	errs := qv.ValidateOptions(models.MultipleChoice, opts)
	assert.Len(t, errs, 1)
	assert.Equal(t, "options[1].content", errs[0].Field)
}
