package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/google/uuid"
)

type CreateQuestionRequest struct {
	TopicID       string                 `json:"topic_id" validate:"required,uuid"`
	SchoolClassID string                 `json:"school_class_id" validate:"required,uuid"`
	Content       string                 `json:"content" validate:"required,min=3"`
	Explanation   string                 `json:"explanation" validate:"omitempty"`
	Type          models.QuestionType    `json:"type" validate:"required,question_type"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Options       []CreateOptionRequest  `json:"options" validate:"required,min=2,max=4,dive"`
}

type CreateOptionRequest struct {
	Content   string `json:"content" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type UpdateQuestionRequest struct {
	Content     *string                 `json:"content" validate:"omitempty,min=3"`
	Explanation *string                 `json:"explanation"`
	Difficulty  *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	IsActive    *bool                   `json:"is_active"`
}

type QuestionService interface {
	Create(ctx context.Context, req CreateQuestionRequest, createdBy string) (*models.Question, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Update(ctx context.Context, id string, req UpdateQuestionRequest) (*models.Question, error)

	// Delete retires a question. Questions on an exam's current set are
	// soft deleted only; past attempts keep resolving their sequences.
	Delete(ctx context.Context, id string) error
}

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, req CreateQuestionRequest, createdBy string) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	options := make([]models.Option, len(req.Options))
	for i, opt := range req.Options {
		options[i] = models.Option{
			ID:        uuid.NewString(),
			Content:   opt.Content,
			IsCorrect: opt.IsCorrect,
			Position:  i + 1,
		}
	}

	if verrs := s.validator.Question().ValidateOptions(req.Type, options); len(verrs) > 0 {
		return nil, verrs
	}

	question := &models.Question{
		ID:            uuid.NewString(),
		TopicID:       req.TopicID,
		SchoolClassID: req.SchoolClassID,
		Content:       req.Content,
		Explanation:   req.Explanation,
		Type:          req.Type,
		Difficulty:    req.Difficulty,
		IsActive:      true,
		CreatedBy:     createdBy,
		Options:       options,
	}
	for i := range question.Options {
		question.Options[i].QuestionID = question.ID
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"topic_id", question.TopicID,
		"type", question.Type,
		"created_by", createdBy)

	return question, nil
}

func (s *questionService) Get(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.Question().GetByIDWithOptions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Question().List(ctx, filters)
}

func (s *questionService) Update(ctx context.Context, id string, req UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByIDWithOptions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if req.Content != nil {
		question.Content = *req.Content
	}
	if req.Explanation != nil {
		question.Explanation = *req.Explanation
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated", "question_id", id)
	return question, nil
}

func (s *questionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Question().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if err := s.repo.Question().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", id)
	return nil
}
