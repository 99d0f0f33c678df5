package services

import (
	"errors"
	"fmt"

	apperrors "github.com/edupath/cbt-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")

	// Exam specific errors
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotLive        = errors.New("exam is not live")
	ErrExamWindowClosed   = errors.New("exam is outside its scheduled window")
	ErrExamHasNoQuestions = errors.New("exam has no questions")
	ErrExamInvalidStatus  = errors.New("invalid exam status transition")

	// Question specific errors
	ErrQuestionNotFound     = errors.New("question not found")
	ErrQuestionInvalidCount = errors.New("requested question count must be at least 1")

	// Attempt specific errors
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrAttemptCorruptedOrder = errors.New("attempt sequence metadata is corrupted")

	// Academic structure errors
	ErrTopicNotFound       = errors.New("topic not found")
	ErrSchoolClassNotFound = errors.New("school class not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// EligibilityError reports why an exam refuses a new attempt. It wraps one of
// the eligibility sentinels so callers can classify with errors.Is.
type EligibilityError struct {
	ExamID string
	Reason error
}

func (ee *EligibilityError) Error() string {
	return fmt.Sprintf("exam %s is not eligible: %v", ee.ExamID, ee.Reason)
}

func (ee *EligibilityError) Unwrap() error {
	return ee.Reason
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewEligibilityError(examID string, reason error) *EligibilityError {
	return &EligibilityError{ExamID: examID, Reason: reason}
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrSchoolClassNotFound)
}

// IsEligibility checks if error represents an attempt-eligibility rejection
func IsEligibility(err error) bool {
	var ee *EligibilityError
	return errors.As(err, &ee)
}

// IsForbidden checks if error represents an authorization failure
func IsForbidden(err error) bool {
	if errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrQuestionInvalidCount) {
		return true
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return true
	}
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// IsIntegrity checks if error represents corrupted persisted state that must
// abort the operation rather than degrade it.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrAttemptCorruptedOrder)
}
