package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	TopicID       string  `json:"topic_id" gorm:"not null;size:36;index" validate:"required"`
	SchoolClassID string  `json:"school_class_id" gorm:"not null;size:36;index" validate:"required"`
	Content       string  `json:"content" gorm:"type:text;not null" validate:"required,min=1"`
	Explanation   string  `json:"explanation" gorm:"type:text" validate:"omitempty,max=2000"`

	Type       QuestionType    `json:"type" gorm:"not null;size:20;index" validate:"required,question_type"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;default:medium;size:10" validate:"omitempty,difficulty_level"`

	// Stamped by the rotation selector each time the question is placed on an
	// exam. Nil means never used.
	LastUsedAt *time.Time `json:"last_used_at" gorm:"index"`
	IsActive   bool       `json:"is_active" gorm:"default:true;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:36;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Topic       Topic       `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	SchoolClass SchoolClass `json:"school_class,omitempty" gorm:"foreignKey:SchoolClassID"`
	Options     []Option    `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

type Option struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	QuestionID string `json:"question_id" gorm:"not null;size:36;index"`
	Content    string `json:"content" gorm:"type:text;not null" validate:"required"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`

	// Authoring order. Display order per attempt comes from the attempt
	// metadata, never from this column.
	Position int `json:"position" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Option) TableName() string {
	return "options"
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
