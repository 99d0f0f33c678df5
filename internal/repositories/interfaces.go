package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/edupath/cbt-service/internal/models"
	"gorm.io/gorm"
)

// Scope identifies the (subject, class) pair eligible questions are drawn
// from. Subject membership resolves through the question's topic.
type Scope struct {
	SubjectID     string `json:"subject_id"`
	SchoolClassID string `json:"school_class_id"`
}

type QuestionFilters struct {
	Search        string                  `json:"search"`
	SubjectID     *string                 `json:"subject_id"`
	SchoolClassID *string                 `json:"school_class_id"`
	TopicID       *string                 `json:"topic_id"`
	Type          *models.QuestionType    `json:"type"`
	Difficulty    *models.DifficultyLevel `json:"difficulty"`
	CreatedBy     *string                 `json:"created_by"`
	Limit         int                     `json:"limit"`
	Offset        int                     `json:"offset"`
	SortBy        string                  `json:"sort_by"`
	SortOrder     string                  `json:"sort_order"`
}

type ExamFilters struct {
	Status        *models.ExamStatus `json:"status"`
	SubjectID     *string            `json:"subject_id"`
	SchoolClassID *string            `json:"school_class_id"`
	CreatedBy     *string            `json:"created_by"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
	SortBy        string             `json:"sort_by"`
	SortOrder     string             `json:"sort_order"`
}

type AttemptFilters struct {
	Status   *models.AttemptStatus `json:"status"`
	ExamID   *string               `json:"exam_id"`
	UserID   *string               `json:"user_id"`
	DateFrom *time.Time            `json:"date_from"`
	DateTo   *time.Time            `json:"date_to"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	GetByIDWithOptions(ctx context.Context, id string) (*models.Question, error)
	// GetByIDs resolves an explicit id list, soft-deleted rows included, so
	// locked attempt sequences keep resolving after a question is retired.
	GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// FindFresh returns up to limit active questions in scope whose
	// last_used_at is null or before cutoff, in random order.
	FindFresh(ctx context.Context, scope Scope, cutoff time.Time, limit int) ([]*models.Question, error)

	// FindLeastRecentlyUsed returns up to limit active questions in scope,
	// excluding excludeIDs, ordered oldest usage first with never-used rows
	// leading.
	FindLeastRecentlyUsed(ctx context.Context, scope Scope, excludeIDs []string, limit int) ([]*models.Question, error)

	StampLastUsed(ctx context.Context, ids []string, usedAt time.Time) error
	CountInScope(ctx context.Context, scope Scope) (int64, error)
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id string) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)

	// ReplaceQuestions swaps the exam's question set for questionIDs,
	// assigning positions in the given order.
	ReplaceQuestions(ctx context.Context, examID string, questionIDs []string) error
	GetQuestionSet(ctx context.Context, examID string) ([]*models.ExamQuestion, error)
	QuestionCount(ctx context.Context, examID string) (int64, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, id string) (*models.ExamAttempt, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.ExamAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamAttempt, error)

	// GetOngoing returns the single ongoing attempt for (examID, userID), or
	// (nil, nil) when none exists. The ForUpdate variant takes a row lock and
	// must be called inside a transaction.
	GetOngoing(ctx context.Context, examID, userID string) (*models.ExamAttempt, error)
	GetOngoingForUpdate(ctx context.Context, examID, userID string) (*models.ExamAttempt, error)

	Update(ctx context.Context, attempt *models.ExamAttempt) error
	List(ctx context.Context, filters AttemptFilters) ([]*models.ExamAttempt, int64, error)

	// ListExpired returns ongoing attempts whose exam duration elapsed
	// before now.
	ListExpired(ctx context.Context, now time.Time) ([]*models.ExamAttempt, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.ExamAnswer) error
	GetByAttempt(ctx context.Context, attemptID string) ([]*models.ExamAnswer, error)
	CountByAttempt(ctx context.Context, attemptID string) (int64, error)
}

type TopicRepository interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id string) (*models.Topic, error)
	GetByIDWithSubject(ctx context.Context, id string) (*models.Topic, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*models.Topic, error)
}

type SchoolClassRepository interface {
	Create(ctx context.Context, class *models.SchoolClass) error
	GetByID(ctx context.Context, id string) (*models.SchoolClass, error)
	List(ctx context.Context) ([]*models.SchoolClass, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Repository aggregates the per-entity repositories and owns the
// transactional boundary.
type Repository interface {
	Question() QuestionRepository
	Exam() ExamRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Topic() TopicRepository
	SchoolClass() SchoolClassRepository
	User() UserRepository

	// WithTransaction runs fn against a repository bound to a single
	// database transaction; fn returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
}

// IsNotFoundError reports whether err is the store's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
