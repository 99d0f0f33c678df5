package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExamService(repo *MockRepository) (ExamService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewExamService(repo, testLogger(), validator.New(), publisher, nil)
	return svc, publisher
}

func liveExam(id string) *models.Exam {
	return &models.Exam{
		ID:            id,
		SubjectID:     "subject-1",
		SchoolClassID: "class-1",
		Title:         "End of Term Mathematics",
		Duration:      60,
		Status:        models.ExamLive,
	}
}

func TestAutoSelectQuestions_RejectsNonPositiveCount(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestExamService(repo)

	_, err := svc.AutoSelectQuestions(context.Background(), "exam-1", 0, "teacher-1")

	assert.ErrorIs(t, err, ErrQuestionInvalidCount)
	repo.AssertExpectations(t)
}

func TestAutoSelectQuestions_ExamNotFound(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestExamService(repo)

	repo.exam.On("GetByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.AutoSelectQuestions(context.Background(), "missing", 10, "teacher-1")

	assert.ErrorIs(t, err, ErrExamNotFound)
	repo.AssertExpectations(t)
}

func TestAutoSelectQuestions_PrimaryPoolCoversRequest(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestExamService(repo)

	exam := liveExam("exam-1")
	fresh := makeQuestions(5, 4)

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)
	repo.question.On("FindFresh", mock.Anything, mock.Anything, mock.Anything, 5).Return(fresh, nil)
	repo.exam.On("ReplaceQuestions", mock.Anything, "exam-1", mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 5
	})).Return(nil)
	repo.question.On("StampLastUsed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	selected, err := svc.AutoSelectQuestions(context.Background(), "exam-1", 5, "teacher-1")

	require.NoError(t, err)
	assert.Equal(t, 5, selected)
	repo.question.AssertNotCalled(t, "FindLeastRecentlyUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAutoSelectQuestions_FallbackFillsShortfall(t *testing.T) {
	repo := NewMockRepository()
	svc, publisher := newTestExamService(repo)

	exam := liveExam("exam-1")
	all := makeQuestions(5, 4)
	fresh := all[:2]
	recycled := all[2:]

	freshIDs := []string{all[0].ID, all[1].ID}

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)
	repo.question.On("FindFresh", mock.Anything, mock.Anything, mock.Anything, 5).Return(fresh, nil)
	repo.question.On("FindLeastRecentlyUsed", mock.Anything, mock.Anything, freshIDs, 3).Return(recycled, nil)
	repo.exam.On("ReplaceQuestions", mock.Anything, "exam-1", mock.MatchedBy(func(ids []string) bool {
		// Fresh questions come first, then the recycled fill.
		return len(ids) == 5 && ids[0] == all[0].ID && ids[1] == all[1].ID
	})).Return(nil)
	repo.question.On("StampLastUsed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	selected, err := svc.AutoSelectQuestions(context.Background(), "exam-1", 5, "teacher-1")

	require.NoError(t, err)
	assert.Equal(t, 5, selected)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExamQuestionsRotated, published[0].Type)
	repo.AssertExpectations(t)
}

func TestAutoSelectQuestions_EmptyScopeSelectsNothing(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestExamService(repo)

	exam := liveExam("exam-1")

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)
	repo.question.On("FindFresh", mock.Anything, mock.Anything, mock.Anything, 5).Return([]*models.Question{}, nil)
	repo.question.On("FindLeastRecentlyUsed", mock.Anything, mock.Anything, []string{}, 5).Return([]*models.Question{}, nil)
	repo.exam.On("ReplaceQuestions", mock.Anything, "exam-1", mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 0
	})).Return(nil)
	repo.question.On("StampLastUsed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	selected, err := svc.AutoSelectQuestions(context.Background(), "exam-1", 5, "teacher-1")

	require.NoError(t, err)
	assert.Equal(t, 0, selected)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	repo := NewMockRepository()
	svc, _ := newTestExamService(repo)

	exam := liveExam("exam-1")
	exam.Status = models.ExamClosed

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)

	err := svc.UpdateStatus(context.Background(), "exam-1", models.ExamLive, "teacher-1")

	assert.ErrorIs(t, err, ErrExamInvalidStatus)
	repo.exam.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_PublishesOnGoingLive(t *testing.T) {
	repo := NewMockRepository()
	svc, publisher := newTestExamService(repo)

	exam := liveExam("exam-1")
	exam.Status = models.ExamScheduled

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)
	repo.exam.On("UpdateStatus", mock.Anything, "exam-1", models.ExamLive).Return(nil)

	err := svc.UpdateStatus(context.Background(), "exam-1", models.ExamLive, "teacher-1")

	require.NoError(t, err)
	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExamPublished, published[0].Type)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_PublishesOnClose(t *testing.T) {
	repo := NewMockRepository()
	svc, publisher := newTestExamService(repo)

	exam := liveExam("exam-1")

	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(exam, nil)
	repo.exam.On("UpdateStatus", mock.Anything, "exam-1", models.ExamClosed).Return(nil)

	err := svc.UpdateStatus(context.Background(), "exam-1", models.ExamClosed, "teacher-1")

	require.NoError(t, err)
	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExamClosed, published[0].Type)
	repo.AssertExpectations(t)
}
