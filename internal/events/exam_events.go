package events

import "time"

// EventType represents different types of domain events
type EventType string

const (
	// Exam events
	EventExamPublished        EventType = "exam.published"
	EventExamClosed           EventType = "exam.closed"
	EventExamQuestionsRotated EventType = "exam.questions_rotated"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptTimedOut  EventType = "attempt.timed_out"

	// Question bank events
	EventQuestionsSeeded   EventType = "questions.seeded"
	EventQuestionsImported EventType = "questions.imported"
)

// ExamEvent is the envelope every published event travels in.
type ExamEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ExamPublishedEvent struct {
	ExamID        string     `json:"exam_id"`
	Title         string     `json:"title"`
	SchoolClassID string     `json:"school_class_id"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      int        `json:"duration"`
}

type ExamClosedEvent struct {
	ExamID   string    `json:"exam_id"`
	Title    string    `json:"title"`
	ClosedAt time.Time `json:"closed_at"`
}

type ExamQuestionsRotatedEvent struct {
	ExamID        string    `json:"exam_id"`
	RequestedBy   string    `json:"requested_by"`
	RequestedN    int       `json:"requested_n"`
	SelectedCount int       `json:"selected_count"`
	RotatedAt     time.Time `json:"rotated_at"`
}

type AttemptStartedEvent struct {
	AttemptID string    `json:"attempt_id"`
	ExamID    string    `json:"exam_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

type AttemptSubmittedEvent struct {
	AttemptID   string    `json:"attempt_id"`
	ExamID      string    `json:"exam_id"`
	UserID      string    `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       float64   `json:"score"`
	Questions   int       `json:"questions"`
}

type AttemptTimedOutEvent struct {
	AttemptID string    `json:"attempt_id"`
	ExamID    string    `json:"exam_id"`
	UserID    string    `json:"user_id"`
	TimedOut  time.Time `json:"timed_out"`
}

type QuestionsSeededEvent struct {
	SubjectID     string   `json:"subject_id"`
	TopicID       string   `json:"topic_id"`
	SchoolClassID string   `json:"school_class_id"`
	QuestionIDs   []string `json:"question_ids"`
	RequestedBy   string   `json:"requested_by"`
	SourceKind    string   `json:"source_kind"` // "ai" or "import"
}
