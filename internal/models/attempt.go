package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptOngoing   AttemptStatus = "ongoing"
	AttemptSubmitted AttemptStatus = "submitted"
	AttemptGraded    AttemptStatus = "graded"
	AttemptTimedOut  AttemptStatus = "timed_out"
)

// ErrCorruptSequence reports attempt metadata that cannot be decoded or holds
// no question order. Reads of a locked attempt must fail on it rather than
// fall back to reshuffling.
var ErrCorruptSequence = errors.New("attempt metadata holds no usable sequence")

// AttemptSequence is the locked-in ordering persisted at attempt start.
// Written once; only read afterwards.
type AttemptSequence struct {
	QuestionOrder []string            `json:"question_order"`
	OptionOrders  map[string][]string `json:"option_orders"`
}

type ExamAttempt struct {
	ID     string        `json:"id" gorm:"primaryKey;size:36"`
	// The partial unique index backs the one-ongoing-attempt rule; the row
	// lock at start handles races within a transaction.
	ExamID string        `json:"exam_id" gorm:"not null;size:36;index:idx_attempt_exam_user;uniqueIndex:idx_one_ongoing_attempt,where:status = 'ongoing'" validate:"required"`
	UserID string        `json:"user_id" gorm:"not null;size:36;index:idx_attempt_exam_user;uniqueIndex:idx_one_ongoing_attempt,where:status = 'ongoing'" validate:"required"`
	Status AttemptStatus `json:"status" gorm:"not null;default:ongoing;size:20;index"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Score       *float64   `json:"score"`

	// Locked question/option ordering, see AttemptSequence.
	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exam    Exam         `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	User    User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Answers []ExamAnswer `json:"answers,omitempty" gorm:"foreignKey:ExamAttemptID"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (a *ExamAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Sequence decodes the locked-in ordering from the metadata blob.
func (a *ExamAttempt) Sequence() (*AttemptSequence, error) {
	if len(a.Metadata) == 0 {
		return nil, ErrCorruptSequence
	}
	var seq AttemptSequence
	if err := json.Unmarshal(a.Metadata, &seq); err != nil {
		return nil, ErrCorruptSequence
	}
	if len(seq.QuestionOrder) == 0 {
		return nil, ErrCorruptSequence
	}
	return &seq, nil
}

// SetSequence encodes the locked-in ordering into the metadata blob.
func (a *ExamAttempt) SetSequence(seq *AttemptSequence) error {
	blob, err := json.Marshal(seq)
	if err != nil {
		return err
	}
	a.Metadata = blob
	return nil
}

// ExpiresAt is the moment the attempt runs out of time.
func (a *ExamAttempt) ExpiresAt(examDuration int) time.Time {
	return a.StartedAt.Add(time.Duration(examDuration) * time.Minute)
}

type ExamAnswer struct {
	ID            string `json:"id" gorm:"primaryKey;size:36"`
	ExamAttemptID string `json:"exam_attempt_id" gorm:"not null;size:36;uniqueIndex:idx_answer_attempt_question"`
	QuestionID    string `json:"question_id" gorm:"not null;size:36;uniqueIndex:idx_answer_attempt_question"`

	// OptionID is the submitted option when one resolved against the locked
	// option set; AnswerText preserves the raw submission otherwise.
	OptionID    *string `json:"option_id" gorm:"size:36"`
	AnswerText  *string `json:"answer_text" gorm:"type:text"`
	IsCorrect   bool    `json:"is_correct" gorm:"not null;default:false"`
	MarksEarned float64 `json:"marks_earned" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`

	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}

func (a *ExamAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
