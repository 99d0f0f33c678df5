package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamScheduled ExamStatus = "scheduled"
	ExamLive      ExamStatus = "live"
	ExamClosed    ExamStatus = "closed"
)

type Exam struct {
	ID                string  `json:"id" gorm:"primaryKey;size:36"`
	SubjectID         string  `json:"subject_id" gorm:"not null;size:36;index" validate:"required"`
	SchoolClassID     string  `json:"school_class_id" gorm:"not null;size:36;index" validate:"required"`
	AcademicSessionID string  `json:"academic_session_id" gorm:"not null;size:36;index" validate:"required"`
	Title             string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description       *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Instructions      *string `json:"instructions" gorm:"type:text"`

	// Duration in minutes
	Duration  int        `json:"duration" gorm:"not null" validate:"required,min=5,max=300"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    ExamStatus `json:"status" gorm:"not null;default:draft;size:20;index" validate:"omitempty,exam_status"`

	Settings datatypes.JSON `json:"settings" gorm:"type:jsonb"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:36;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Subject         Subject         `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	SchoolClass     SchoolClass     `json:"school_class,omitempty" gorm:"foreignKey:SchoolClassID"`
	AcademicSession AcademicSession `json:"academic_session,omitempty" gorm:"foreignKey:AcademicSessionID"`
	Questions       []ExamQuestion  `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	Attempts        []ExamAttempt   `json:"attempts,omitempty" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// IsOpenAt reports whether the exam accepts new attempts at t: it must be
// live and t must fall inside the scheduled window when one is set.
func (e *Exam) IsOpenAt(t time.Time) bool {
	if e.Status != ExamLive {
		return false
	}
	if e.StartTime != nil && t.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && t.After(*e.EndTime) {
		return false
	}
	return true
}

// ExamQuestion is the exam <-> question association. Marks carries the weight
// used by the scorer; Position is the authoring order shown to staff.
type ExamQuestion struct {
	ExamID     string  `json:"exam_id" gorm:"primaryKey;size:36"`
	QuestionID string  `json:"question_id" gorm:"primaryKey;size:36"`
	Marks      float64 `json:"marks" gorm:"not null;default:1"`
	Position   int     `json:"position" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`

	Question Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}
