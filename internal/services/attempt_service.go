package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edupath/cbt-service/internal/events"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/google/uuid"
)

// AnswerMap holds the submitted answers keyed by question id. The value is
// the selected option id, or free text for anything that does not resolve to
// an option of that question.
type AnswerMap map[string]string

type AttemptService interface {
	// Start returns the student's ongoing attempt for the exam, creating one
	// with a freshly locked question/option order when none exists.
	Start(ctx context.Context, examID, userID string) (*models.ExamAttempt, error)

	Get(ctx context.Context, attemptID, userID string) (*models.ExamAttempt, error)

	// Questions returns the attempt's questions in their locked-in order,
	// with each question's options sorted by the locked option order.
	Questions(ctx context.Context, attemptID, userID string) ([]*models.Question, error)

	// Submit grades the answers against the locked sequence and finalizes
	// the attempt. Submitting a non-ongoing attempt is a silent no-op.
	Submit(ctx context.Context, attemptID string, answers AnswerMap, userID string) error

	// HandleTimeout transitions an expired ongoing attempt to timed out.
	HandleTimeout(ctx context.Context, attemptID string) error

	List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error)
}

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *attemptService) Start(ctx context.Context, examID, userID string) (*models.ExamAttempt, error) {
	s.logger.Info("Starting exam attempt", "exam_id", examID, "user_id", userID)

	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if err := checkEligibility(exam, time.Now()); err != nil {
		return nil, err
	}

	var attempt *models.ExamAttempt
	var resumed bool

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Serialize the check-then-act per (user, exam): the row lock on the
		// ongoing attempt makes a concurrent double-start wait here and then
		// observe the winner's attempt.
		existing, err := tx.Attempt().GetOngoingForUpdate(ctx, examID, userID)
		if err != nil {
			return fmt.Errorf("failed to check ongoing attempt: %w", err)
		}
		if existing != nil {
			attempt = existing
			resumed = true
			return nil
		}

		questions, err := s.examQuestions(ctx, tx, examID)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return NewEligibilityError(examID, ErrExamHasNoQuestions)
		}

		fresh := &models.ExamAttempt{
			ID:        uuid.NewString(),
			ExamID:    examID,
			UserID:    userID,
			Status:    models.AttemptOngoing,
			StartedAt: time.Now(),
		}

		// Lock in the per-attempt ordering before the row ever becomes
		// visible; readers never observe an attempt without its sequence.
		if err := fresh.SetSequence(buildAttemptSequence(fresh.ID, questions)); err != nil {
			return fmt.Errorf("failed to encode attempt sequence: %w", err)
		}

		if err := tx.Attempt().Create(ctx, fresh); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}

		attempt = fresh
		return nil
	})
	if err != nil {
		// Two first starts can race past the row lock when no ongoing row
		// exists yet; the partial unique index fails the loser's insert.
		// The loser resolves to the winner's attempt.
		if repositories.IsDuplicateError(err) {
			existing, readErr := s.repo.Attempt().GetOngoing(ctx, examID, userID)
			if readErr != nil {
				return nil, fmt.Errorf("failed to resolve concurrent start: %w", readErr)
			}
			if existing != nil {
				attempt = existing
				resumed = true
			}
		}
		if !resumed {
			return nil, err
		}
	}

	if resumed {
		s.logger.Info("Resuming existing attempt", "attempt_id", attempt.ID, "user_id", userID)
		return attempt, nil
	}

	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", examID,
		"user_id", userID)

	s.publishEvent(ctx, events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		ExamID:    examID,
		UserID:    userID,
		StartedAt: attempt.StartedAt,
	})

	return attempt, nil
}

func (s *attemptService) Get(ctx context.Context, attemptID, userID string) (*models.ExamAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not owned by user")
	}

	return attempt, nil
}

func (s *attemptService) Questions(ctx context.Context, attemptID, userID string) ([]*models.Question, error) {
	attempt, err := s.Get(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	seq, err := attempt.Sequence()
	if err != nil {
		return nil, fmt.Errorf("%w: attempt %s", ErrAttemptCorruptedOrder, attemptID)
	}

	questions, err := s.repo.Question().GetByIDs(ctx, seq.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt questions: %w", err)
	}
	if len(questions) != len(seq.QuestionOrder) {
		return nil, fmt.Errorf("%w: attempt %s references %d questions, found %d",
			ErrAttemptCorruptedOrder, attemptID, len(seq.QuestionOrder), len(questions))
	}

	return orderQuestions(questions, seq), nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID string, answers AnswerMap, userID string) error {
	s.logger.Info("Submitting exam attempt",
		"attempt_id", attemptID,
		"user_id", userID,
		"answers_count", len(answers))

	var submitted *events.AttemptSubmittedEvent

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := tx.Attempt().GetByIDForUpdate(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		if attempt.UserID != userID {
			return NewPermissionError(userID, attemptID, "attempt", "submit", "not owned by user")
		}

		// Double submits are ignored, not rejected; the attempt keeps its
		// first result and the student experience stays seamless.
		if attempt.Status != models.AttemptOngoing {
			s.logger.Info("Ignoring submission for non-ongoing attempt",
				"attempt_id", attemptID,
				"status", attempt.Status)
			return nil
		}

		seq, err := attempt.Sequence()
		if err != nil {
			return fmt.Errorf("%w: attempt %s", ErrAttemptCorruptedOrder, attemptID)
		}

		questions, err := tx.Question().GetByIDs(ctx, seq.QuestionOrder)
		if err != nil {
			return fmt.Errorf("failed to load attempt questions: %w", err)
		}
		byID := make(map[string]*models.Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}

		marks, err := s.questionMarks(ctx, tx, attempt.ExamID)
		if err != nil {
			return err
		}

		now := time.Now()
		var score float64
		rows := make([]*models.ExamAnswer, 0, len(seq.QuestionOrder))

		// Grade in the locked order, one answer row per question, blanks
		// included.
		for _, questionID := range seq.QuestionOrder {
			question, ok := byID[questionID]
			if !ok {
				return fmt.Errorf("%w: attempt %s references missing question %s",
					ErrAttemptCorruptedOrder, attemptID, questionID)
			}

			row := &models.ExamAnswer{
				ExamAttemptID: attempt.ID,
				QuestionID:    questionID,
			}

			if raw, answered := answers[questionID]; answered && raw != "" {
				if option := findOption(question.Options, raw); option != nil {
					row.OptionID = &option.ID
					row.IsCorrect = option.IsCorrect
				} else {
					// Unknown or garbage selections grade as incorrect,
					// never as an error.
					text := raw
					row.AnswerText = &text
				}
			}

			if row.IsCorrect {
				// Questions rotated off the current set after lock-in still
				// carry their default weight.
				earned, listed := marks[questionID]
				if !listed {
					earned = 1
				}
				row.MarksEarned = earned
				score += earned
			}
			rows = append(rows, row)
		}

		if err := tx.Answer().CreateBatch(ctx, rows); err != nil {
			return fmt.Errorf("failed to record answers: %w", err)
		}

		attempt.Status = models.AttemptSubmitted
		attempt.SubmittedAt = &now
		attempt.Score = &score

		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to finalize attempt: %w", err)
		}

		submitted = &events.AttemptSubmittedEvent{
			AttemptID:   attempt.ID,
			ExamID:      attempt.ExamID,
			UserID:      attempt.UserID,
			SubmittedAt: now,
			Score:       score,
			Questions:   len(rows),
		}
		return nil
	})
	if err != nil {
		return err
	}

	if submitted != nil {
		s.logger.Info("Exam attempt submitted",
			"attempt_id", attemptID,
			"score", submitted.Score,
			"questions", submitted.Questions)
		s.publishEvent(ctx, events.EventAttemptSubmitted, *submitted)
	}

	return nil
}

func (s *attemptService) HandleTimeout(ctx context.Context, attemptID string) error {
	var timedOut *events.AttemptTimedOutEvent

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := tx.Attempt().GetByIDForUpdate(ctx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}

		// Same guard as the scorer: only ongoing attempts transition.
		if attempt.Status != models.AttemptOngoing {
			return nil
		}

		now := time.Now()
		attempt.Status = models.AttemptTimedOut
		attempt.SubmittedAt = &now

		if err := tx.Attempt().Update(ctx, attempt); err != nil {
			return fmt.Errorf("failed to time out attempt: %w", err)
		}

		timedOut = &events.AttemptTimedOutEvent{
			AttemptID: attempt.ID,
			ExamID:    attempt.ExamID,
			UserID:    attempt.UserID,
			TimedOut:  now,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if timedOut != nil {
		s.logger.Info("Exam attempt timed out", "attempt_id", attemptID)
		s.publishEvent(ctx, events.EventAttemptTimedOut, *timedOut)
	}

	return nil
}

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.ExamAttempt, int64, error) {
	return s.repo.Attempt().List(ctx, filters)
}

// ===== HELPERS =====

// checkEligibility rejects attempts against exams that are not open.
func checkEligibility(exam *models.Exam, now time.Time) error {
	if exam.Status != models.ExamLive {
		return NewEligibilityError(exam.ID, ErrExamNotLive)
	}
	if !exam.IsOpenAt(now) {
		return NewEligibilityError(exam.ID, ErrExamWindowClosed)
	}
	return nil
}

// examQuestions loads the exam's question set with options, in authoring
// order.
func (s *attemptService) examQuestions(ctx context.Context, tx repositories.Repository, examID string) ([]*models.Question, error) {
	set, err := tx.Exam().GetQuestionSet(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam question set: %w", err)
	}
	if len(set) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(set))
	for _, eq := range set {
		ids = append(ids, eq.QuestionID)
	}

	questions, err := tx.Question().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return questions, nil
}

// questionMarks maps question id to its weight on the exam; unlisted
// questions default to 1.
func (s *attemptService) questionMarks(ctx context.Context, tx repositories.Repository, examID string) (map[string]float64, error) {
	set, err := tx.Exam().GetQuestionSet(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam question set: %w", err)
	}

	marks := make(map[string]float64, len(set))
	for _, eq := range set {
		if eq.Marks > 0 {
			marks[eq.QuestionID] = eq.Marks
		} else {
			marks[eq.QuestionID] = 1
		}
	}
	return marks, nil
}

func findOption(options []models.Option, id string) *models.Option {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}
	return nil
}

func (s *attemptService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
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
		s.logger.Error("Failed to publish attempt event", "event_type", eventType, "error", err)
	}
}
