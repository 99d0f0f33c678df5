package postgres

import (
	"context"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.ExamAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Create(answers).Error
}

func (a AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID string) ([]*models.ExamAnswer, error) {
	var answers []*models.ExamAnswer
	if err := a.db.WithContext(ctx).
		Where("exam_attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) CountByAttempt(ctx context.Context, attemptID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.ExamAnswer{}).
		Where("exam_attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}
