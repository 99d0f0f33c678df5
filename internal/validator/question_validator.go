package validator

import (
	"fmt"

	"github.com/edupath/cbt-service/internal/models"
)

const (
	minOptionsPerQuestion = 2
	maxOptionsPerQuestion = 4
)

// QuestionValidator enforces the authoring rules the attempt core relies on:
// every question carries 2-4 options and at least one marked correct.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateOptions checks the option set for a question of the given type.
func (qv *QuestionValidator) ValidateOptions(qType models.QuestionType, options []models.Option) ValidationErrors {
	var errs ValidationErrors

	if len(options) < minOptionsPerQuestion || len(options) > maxOptionsPerQuestion {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("must have between %d and %d options", minOptionsPerQuestion, maxOptionsPerQuestion),
			Value:   len(options),
		})
	}

	if qType == models.TrueFalse && len(options) != 2 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "true/false questions must have exactly 2 options",
			Value:   len(options),
		})
	}

	correct := 0
	for i, opt := range options {
		if opt.Content == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d].content", i),
				Message: "is required",
			})
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if correct == 0 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "at least one option must be marked correct",
		})
	}
	if qType == models.TrueFalse && correct > 1 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "true/false questions must have exactly one correct option",
			Value:   correct,
		})
	}

	return errs
}
