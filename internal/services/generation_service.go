package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

type GenerateQuestionsRequest struct {
	TopicID       string                 `json:"topic_id" validate:"required,uuid"`
	SchoolClassID string                 `json:"school_class_id" validate:"required,uuid"`
	Count         int                    `json:"count" validate:"required,min=1,max=50"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Type          models.QuestionType    `json:"type" validate:"omitempty,question_type"`
}

// gatewayRequest is the payload sent to the question generation gateway.
type gatewayRequest struct {
	Topic      string `json:"topic"`
	Subject    string `json:"subject"`
	ClassLevel string `json:"class_level"`
	Count      int    `json:"count"`
	Difficulty string `json:"difficulty,omitempty"`
	Type       string `json:"type,omitempty"`
}

type gatewayQuestion struct {
	Text        string `json:"text"`
	Type        string `json:"type"`
	Difficulty  string `json:"difficulty"`
	Explanation string `json:"explanation"`
	Options     []struct {
		Text      string `json:"text"`
		IsCorrect bool   `json:"is_correct"`
	} `json:"options"`
}

type gatewayResponse struct {
	Questions []gatewayQuestion `json:"questions"`
}

type gatewayError struct {
	Message string `json:"message"`
}

// GenerationService seeds the question bank from an AI question gateway.
type GenerationService interface {
	GenerateQuestions(ctx context.Context, req GenerateQuestionsRequest, requestedBy string) ([]*models.Question, error)
}

type generationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	client    *resty.Client
}

func NewGenerationService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, gatewayURL, apiKey string, timeout time.Duration) GenerationService {
	client := resty.New().
		SetBaseURL(gatewayURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &generationService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		client:    client,
	}
}

func (s *generationService) GenerateQuestions(ctx context.Context, req GenerateQuestionsRequest, requestedBy string) ([]*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	topic, err := s.repo.Topic().GetByIDWithSubject(ctx, req.TopicID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	class, err := s.repo.SchoolClass().GetByID(ctx, req.SchoolClassID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolClassNotFound
		}
		return nil, fmt.Errorf("failed to get school class: %w", err)
	}

	s.logger.Info("Requesting question generation",
		"topic_id", req.TopicID,
		"count", req.Count,
		"requested_by", requestedBy)

	payload := gatewayRequest{
		Topic:      topic.Name,
		Subject:    topic.Subject.Name,
		ClassLevel: class.Name,
		Count:      req.Count,
		Difficulty: string(req.Difficulty),
		Type:       string(req.Type),
	}

	var result gatewayResponse
	var gwErr gatewayError

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		SetError(&gwErr).
		Post("/v1/questions/generate")
	if err != nil {
		return nil, fmt.Errorf("question gateway request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		// Non-JSON error bodies leave gwErr empty.
		message := gwErr.Message
		if message == "" {
			message = resp.Status()
		}
		return nil, fmt.Errorf("question gateway returned %d: %s", resp.StatusCode(), message)
	}
	if len(result.Questions) == 0 {
		return nil, fmt.Errorf("question gateway returned no questions")
	}

	questions := make([]*models.Question, 0, len(result.Questions))
	for i, generated := range result.Questions {
		question, convErr := s.convertGenerated(generated, req, requestedBy)
		if convErr != nil {
			// Drop malformed generations rather than failing the batch.
			s.logger.Warn("Skipping invalid generated question", "index", i, "error", convErr)
			continue
		}
		questions = append(questions, question)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question gateway returned no usable questions")
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Question().CreateBatch(ctx, questions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save generated questions: %w", err)
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	s.logger.Info("Generated questions saved",
		"topic_id", req.TopicID,
		"requested", req.Count,
		"saved", len(questions))

	s.publishEvent(ctx, events.EventQuestionsSeeded, events.QuestionsSeededEvent{
		SubjectID:     topic.SubjectID,
		TopicID:       req.TopicID,
		SchoolClassID: req.SchoolClassID,
		QuestionIDs:   ids,
		RequestedBy:   requestedBy,
		SourceKind:    "ai",
	})

	return questions, nil
}

func (s *generationService) convertGenerated(generated gatewayQuestion, req GenerateQuestionsRequest, requestedBy string) (*models.Question, error) {
	qType := models.QuestionType(generated.Type)
	if qType != models.MultipleChoice && qType != models.TrueFalse {
		return nil, fmt.Errorf("unsupported question type %q", generated.Type)
	}
	if generated.Text == "" {
		return nil, fmt.Errorf("empty question text")
	}

	difficulty := models.DifficultyLevel(generated.Difficulty)
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		difficulty = models.DifficultyMedium
	}

	question := &models.Question{
		ID:            uuid.NewString(),
		TopicID:       req.TopicID,
		SchoolClassID: req.SchoolClassID,
		Content:       generated.Text,
		Explanation:   generated.Explanation,
		Type:          qType,
		Difficulty:    difficulty,
		IsActive:      true,
		CreatedBy:     requestedBy,
	}

	for i, opt := range generated.Options {
		question.Options = append(question.Options, models.Option{
			ID:         uuid.NewString(),
			QuestionID: question.ID,
			Content:    opt.Text,
			IsCorrect:  opt.IsCorrect,
			Position:   i + 1,
		})
	}

	if verrs := s.validator.Question().ValidateOptions(qType, question.Options); len(verrs) > 0 {
		return nil, verrs
	}

	return question, nil
}

func (s *generationService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
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
		s.logger.Error("Failed to publish generation event", "event_type", eventType, "error", err)
	}
}
