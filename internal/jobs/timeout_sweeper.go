package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/robfig/cron/v3"
)

// TimeoutSweeper periodically closes ongoing attempts whose exam duration
// has elapsed.
type TimeoutSweeper struct {
	repo     repositories.Repository
	attempts services.AttemptService
	logger   *slog.Logger
	cron     *cron.Cron
	schedule string
}

func NewTimeoutSweeper(repo repositories.Repository, attempts services.AttemptService, logger *slog.Logger, schedule string) *TimeoutSweeper {
	if schedule == "" {
		schedule = "* * * * *"
	}
	return &TimeoutSweeper{
		repo:     repo,
		attempts: attempts,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}
}

func (s *TimeoutSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Attempt timeout sweeper started", "schedule", s.schedule)
	return nil
}

func (s *TimeoutSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Attempt timeout sweeper stopped")
}

func (s *TimeoutSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.repo.Attempt().ListExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to list expired attempts", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	s.logger.Info("Sweeping expired attempts", "count", len(expired))

	for _, attempt := range expired {
		if err := s.attempts.HandleTimeout(ctx, attempt.ID); err != nil {
			s.logger.Error("Failed to time out attempt",
				"attempt_id", attempt.ID,
				"error", err)
		}
	}
}
