package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Subject struct {
	ID   string `json:"id" gorm:"primaryKey;size:36"`
	Name string `json:"name" gorm:"not null;size:100;uniqueIndex" validate:"required,min=1,max=100"`
	Code string `json:"code" gorm:"not null;size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Topics []Topic `json:"topics,omitempty" gorm:"foreignKey:SubjectID"`
}

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Topic groups questions under a subject. Question scope resolution goes
// question -> topic -> subject.
type Topic struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	SubjectID string `json:"subject_id" gorm:"not null;size:36;index" validate:"required"`
	Name      string `json:"name" gorm:"not null;size:150" validate:"required,min=1,max=150"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type SchoolClass struct {
	ID    string `json:"id" gorm:"primaryKey;size:36"`
	Name  string `json:"name" gorm:"not null;size:50" validate:"required"`
	Level int    `json:"level" gorm:"not null" validate:"min=1,max=12"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *SchoolClass) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type AcademicSession struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null;size:50;uniqueIndex" validate:"required"`
	StartsOn  time.Time `json:"starts_on" gorm:"not null"`
	EndsOn    time.Time `json:"ends_on" gorm:"not null"`
	IsCurrent bool      `json:"is_current" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *AcademicSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
