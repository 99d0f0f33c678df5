package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("content", "is required", nil)
	assert.Equal(t, "validation error on field 'content': is required", err.Error())
}

func TestValidationErrors_Error(t *testing.T) {
	tests := []struct {
		name string
		errs ValidationErrors
		want string
	}{
		{
			name: "empty",
			errs: ValidationErrors{},
			want: "validation failed",
		},
		{
			name: "single error",
			errs: ValidationErrors{{Field: "duration", Message: "must be at least 5"}},
			want: "validation failed: duration must be at least 5",
		},
		{
			name: "multiple errors",
			errs: ValidationErrors{
				{Field: "duration", Message: "must be at least 5"},
				{Field: "title", Message: "is required"},
			},
			want: "validation failed: 2 field errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errs.Error())
		})
	}
}

func TestToValidationErrors(t *testing.T) {
	type request struct {
		Title    string `validate:"required"`
		Duration int    `validate:"min=5"`
	}

	v := validator.New()
	err := v.Struct(request{Duration: 1})
	assert.Error(t, err)

	errs := ToValidationErrors(err)
	assert.Len(t, errs, 2)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "is required", byField["Title"].Message)
	assert.Equal(t, "required", byField["Title"].Rule)
	assert.Equal(t, "must be at least 5", byField["Duration"].Message)
}

func TestToValidationErrors_NonValidatorError(t *testing.T) {
	errs := ToValidationErrors(assert.AnError)
	assert.Empty(t, errs)
}
