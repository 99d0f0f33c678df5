package services

import (
	"context"
	"time"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []*models.Question) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDWithOptions(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) FindFresh(ctx context.Context, scope repositories.Scope, cutoff time.Time, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, scope, cutoff, limit)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) FindLeastRecentlyUsed(ctx context.Context, scope repositories.Scope, excludeIDs []string, limit int) ([]*models.Question, error) {
	args := m.Called(ctx, scope, excludeIDs, limit)
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) StampLastUsed(ctx context.Context, ids []string, usedAt time.Time) error {
	args := m.Called(ctx, ids, usedAt)
	return args.Error(0)
}

func (m *MockQuestionRepository) CountInScope(ctx context.Context, scope repositories.Scope) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockExamRepository) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Exam), args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) ReplaceQuestions(ctx context.Context, examID string, questionIDs []string) error {
	args := m.Called(ctx, examID, questionIDs)
	return args.Error(0)
}

func (m *MockExamRepository) GetQuestionSet(ctx context.Context, examID string) ([]*models.ExamQuestion, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExamQuestion), args.Error(1)
}

func (m *MockExamRepository) QuestionCount(ctx context.Context, examID string) (int64, error) {
	args := m.Called(ctx, examID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.ExamAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.ExamAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.ExamAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithAnswers(ctx context.Context, id string) (*models.ExamAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetOngoing(ctx context.Context, examID, userID string) (*models.ExamAttempt, error) {
	args := m.Called(ctx, examID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) GetOngoingForUpdate(ctx context.Context, examID, userID string) (*models.ExamAttempt, error) {
	args := m.Called(ctx, examID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAttempt), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.ExamAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.ExamAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.ExamAttempt, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]*models.ExamAttempt), args.Error(1)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) CreateBatch(ctx context.Context, answers []*models.ExamAnswer) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, attemptID string) ([]*models.ExamAnswer, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*models.ExamAnswer), args.Error(1)
}

func (m *MockAnswerRepository) CountByAttempt(ctx context.Context, attemptID string) (int64, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTopicRepository is a mock implementation of TopicRepository
type MockTopicRepository struct {
	mock.Mock
}

func (m *MockTopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

func (m *MockTopicRepository) GetByID(ctx context.Context, id string) (*models.Topic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

func (m *MockTopicRepository) GetByIDWithSubject(ctx context.Context, id string) (*models.Topic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Topic), args.Error(1)
}

func (m *MockTopicRepository) ListBySubject(ctx context.Context, subjectID string) ([]*models.Topic, error) {
	args := m.Called(ctx, subjectID)
	return args.Get(0).([]*models.Topic), args.Error(1)
}

// MockSchoolClassRepository is a mock implementation of SchoolClassRepository
type MockSchoolClassRepository struct {
	mock.Mock
}

func (m *MockSchoolClassRepository) Create(ctx context.Context, class *models.SchoolClass) error {
	args := m.Called(ctx, class)
	return args.Error(0)
}

func (m *MockSchoolClassRepository) GetByID(ctx context.Context, id string) (*models.SchoolClass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SchoolClass), args.Error(1)
}

func (m *MockSchoolClassRepository) List(ctx context.Context) ([]*models.SchoolClass, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.SchoolClass), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepository aggregates the entity mocks. WithTransaction runs the
// callback against the same mock set, so expectations set on the entity
// mocks cover transactional calls too.
type MockRepository struct {
	mock.Mock
	question    *MockQuestionRepository
	exam        *MockExamRepository
	attempt     *MockAttemptRepository
	answer      *MockAnswerRepository
	topic       *MockTopicRepository
	schoolClass *MockSchoolClassRepository
	user        *MockUserRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		question:    new(MockQuestionRepository),
		exam:        new(MockExamRepository),
		attempt:     new(MockAttemptRepository),
		answer:      new(MockAnswerRepository),
		topic:       new(MockTopicRepository),
		schoolClass: new(MockSchoolClassRepository),
		user:        new(MockUserRepository),
	}
}

func (m *MockRepository) Question() repositories.QuestionRepository       { return m.question }
func (m *MockRepository) Exam() repositories.ExamRepository               { return m.exam }
func (m *MockRepository) Attempt() repositories.AttemptRepository         { return m.attempt }
func (m *MockRepository) Answer() repositories.AnswerRepository           { return m.answer }
func (m *MockRepository) Topic() repositories.TopicRepository             { return m.topic }
func (m *MockRepository) SchoolClass() repositories.SchoolClassRepository { return m.schoolClass }
func (m *MockRepository) User() repositories.UserRepository               { return m.user }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	return nil
}

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.question.AssertExpectations(t)
	m.exam.AssertExpectations(t)
	m.attempt.AssertExpectations(t)
	m.answer.AssertExpectations(t)
	m.topic.AssertExpectations(t)
	m.schoolClass.AssertExpectations(t)
	m.user.AssertExpectations(t)
}
