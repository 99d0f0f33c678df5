package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edupath/cbt-service/internal/cache"
	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/google/uuid"
)

// rotationWindow is how long a question stays off the rotation after use.
const rotationWindowYears = 2

const examCacheTTL = 5 * time.Minute

func examCacheKey(id string) string { return "exam:" + id }

type CreateExamRequest struct {
	SubjectID         string     `json:"subject_id" validate:"required"`
	SchoolClassID     string     `json:"school_class_id" validate:"required"`
	AcademicSessionID string     `json:"academic_session_id" validate:"required"`
	Title             string     `json:"title" validate:"required,min=1,max=200"`
	Description       *string    `json:"description" validate:"omitempty,max=1000"`
	Instructions      *string    `json:"instructions"`
	Duration          int        `json:"duration" validate:"required,min=5,max=300"`
	StartTime         *time.Time `json:"start_time"`
	EndTime           *time.Time `json:"end_time"`
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*models.Exam, error)
	Get(ctx context.Context, id string) (*models.Exam, error)
	GetWithQuestions(ctx context.Context, id string) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.ExamStatus, userID string) error
	SetQuestions(ctx context.Context, examID string, questionIDs []string, userID string) error

	// AutoSelectQuestions populates the exam's question set under the
	// biennial rotation policy and returns how many questions were placed.
	AutoSelectQuestions(ctx context.Context, examID string, count int, userID string) (int, error)
	AvailableQuestions(ctx context.Context, examID string) ([]*models.Question, int64, error)
}

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, cacheService cache.CacheService) ExamService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		cache:     cacheService,
	}
}

// allowed one-directional status transitions
var examStatusTransitions = map[models.ExamStatus][]models.ExamStatus{
	models.ExamDraft:     {models.ExamScheduled, models.ExamLive},
	models.ExamScheduled: {models.ExamLive, models.ExamClosed},
	models.ExamLive:      {models.ExamClosed},
	models.ExamClosed:    {},
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*models.Exam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	exam := &models.Exam{
		SubjectID:         req.SubjectID,
		SchoolClassID:     req.SchoolClassID,
		AcademicSessionID: req.AcademicSessionID,
		Title:             req.Title,
		Description:       req.Description,
		Instructions:      req.Instructions,
		Duration:          req.Duration,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Status:            models.ExamDraft,
		CreatedBy:         creatorID,
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created", "exam_id", exam.ID, "creator_id", creatorID)
	return exam, nil
}

func (s *examService) Get(ctx context.Context, id string) (*models.Exam, error) {
	var cached models.Exam
	if err := s.cache.Get(ctx, examCacheKey(id), &cached); err == nil {
		return &cached, nil
	}

	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if err := s.cache.Set(ctx, examCacheKey(id), exam, examCacheTTL); err != nil {
		s.logger.Warn("Failed to cache exam", "exam_id", id, "error", err)
	}
	return exam, nil
}

func (s *examService) GetWithQuestions(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam with questions: %w", err)
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	return s.repo.Exam().List(ctx, filters)
}

func (s *examService) UpdateStatus(ctx context.Context, id string, status models.ExamStatus, userID string) error {
	// Transition decisions read the store, never the cache.
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to get exam: %w", err)
	}

	allowed := false
	for _, next := range examStatusTransitions[exam.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrExamInvalidStatus, exam.Status, status)
	}

	if err := s.repo.Exam().UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update exam status: %w", err)
	}

	if err := s.cache.Delete(ctx, examCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate exam cache", "exam_id", id, "error", err)
	}

	s.logger.Info("Exam status updated",
		"exam_id", id,
		"from", exam.Status,
		"to", status,
		"user_id", userID)

	if status == models.ExamLive {
		s.publishEvent(ctx, events.EventExamPublished, events.ExamPublishedEvent{
			ExamID:        exam.ID,
			Title:         exam.Title,
			SchoolClassID: exam.SchoolClassID,
			StartTime:     exam.StartTime,
			EndTime:       exam.EndTime,
			Duration:      exam.Duration,
		})
	}
	if status == models.ExamClosed {
		s.publishEvent(ctx, events.EventExamClosed, events.ExamClosedEvent{
			ExamID:   exam.ID,
			Title:    exam.Title,
			ClosedAt: time.Now().UTC(),
		})
	}

	return nil
}

func (s *examService) SetQuestions(ctx context.Context, examID string, questionIDs []string, userID string) error {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Exam().ReplaceQuestions(ctx, exam.ID, questionIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to set exam questions: %w", err)
	}

	s.logger.Info("Exam question set replaced",
		"exam_id", examID,
		"question_count", len(questionIDs),
		"user_id", userID)
	return nil
}

// AutoSelectQuestions applies the biennial rotation policy:
//  1. primary pool: in-scope questions never used or used more than two
//     years ago, in random order, capped at count;
//  2. secondary pool: remaining in-scope questions ordered least recently
//     used first, filling any shortfall;
//  3. the union replaces the exam's question set and every selected
//     question's last_used_at is stamped, all in one transaction.
func (s *examService) AutoSelectQuestions(ctx context.Context, examID string, count int, userID string) (int, error) {
	if count < 1 {
		return 0, ErrQuestionInvalidCount
	}

	exam, err := s.Get(ctx, examID)
	if err != nil {
		return 0, err
	}

	scope := repositories.Scope{
		SubjectID:     exam.SubjectID,
		SchoolClassID: exam.SchoolClassID,
	}

	var selectedIDs []string
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		now := time.Now()
		cutoff := now.AddDate(-rotationWindowYears, 0, 0)

		primary, err := tx.Question().FindFresh(ctx, scope, cutoff, count)
		if err != nil {
			return fmt.Errorf("failed to query primary pool: %w", err)
		}

		ids := make([]string, 0, count)
		for _, q := range primary {
			ids = append(ids, q.ID)
		}

		if len(ids) < count {
			fallback, err := tx.Question().FindLeastRecentlyUsed(ctx, scope, ids, count-len(ids))
			if err != nil {
				return fmt.Errorf("failed to query fallback pool: %w", err)
			}
			for _, q := range fallback {
				ids = append(ids, q.ID)
			}
		}

		if err := tx.Exam().ReplaceQuestions(ctx, exam.ID, ids); err != nil {
			return fmt.Errorf("failed to replace question set: %w", err)
		}
		if err := tx.Question().StampLastUsed(ctx, ids, now); err != nil {
			return fmt.Errorf("failed to stamp usage: %w", err)
		}

		selectedIDs = ids
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Exam questions rotated",
		"exam_id", examID,
		"requested", count,
		"selected", len(selectedIDs),
		"user_id", userID)

	s.publishEvent(ctx, events.EventExamQuestionsRotated, events.ExamQuestionsRotatedEvent{
		ExamID:        exam.ID,
		RequestedBy:   userID,
		RequestedN:    count,
		SelectedCount: len(selectedIDs),
		RotatedAt:     time.Now(),
	})

	return len(selectedIDs), nil
}

func (s *examService) AvailableQuestions(ctx context.Context, examID string) ([]*models.Question, int64, error) {
	exam, err := s.Get(ctx, examID)
	if err != nil {
		return nil, 0, err
	}

	filters := repositories.QuestionFilters{
		SubjectID:     &exam.SubjectID,
		SchoolClassID: &exam.SchoolClassID,
	}
	return s.repo.Question().List(ctx, filters)
}

func (s *examService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	if s.publisher == nil {
		return
	}
	event := &events.ExamEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "cbt-service",
		Version:   "1.0",
		Data:      data,
	}
	if err := s.publisher.PublishExamEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish exam event", "event_type", eventType, "error", err)
	}
}
