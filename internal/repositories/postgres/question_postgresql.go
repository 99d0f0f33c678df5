package postgres

import (
	"context"
	"time"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(questions).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDWithOptions(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).
		Preload("Options").
		Preload("Topic").
		First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

// GetByIDs resolves an explicit id list, including soft-deleted rows.
// Attempt sequences reference questions by id and must keep resolving after
// a question is retired from the bank.
func (q QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Question, error) {
	var questions []*models.Question
	if len(ids) == 0 {
		return questions, nil
	}
	if err := q.db.WithContext(ctx).
		Unscoped().
		Preload("Options").
		Where("id IN ?", ids).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q QuestionPostgreSQL) Delete(ctx context.Context, id string) error {
	return q.db.WithContext(ctx).Delete(&models.Question{}, "id = ?", id).Error
}

func (q QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		map[string]bool{"created_at": true, "last_used_at": true, "difficulty": true})

	if err := query.Preload("Options").Preload("Topic").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q QuestionPostgreSQL) FindFresh(ctx context.Context, scope repositories.Scope, cutoff time.Time, limit int) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.scopeQuery(ctx, scope).
		Where("questions.last_used_at IS NULL OR questions.last_used_at < ?", cutoff).
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) FindLeastRecentlyUsed(ctx context.Context, scope repositories.Scope, excludeIDs []string, limit int) ([]*models.Question, error) {
	var questions []*models.Question

	query := q.scopeQuery(ctx, scope)
	if len(excludeIDs) > 0 {
		query = query.Where("questions.id NOT IN ?", excludeIDs)
	}

	if err := query.
		Order("questions.last_used_at ASC NULLS FIRST").
		Limit(limit).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) StampLastUsed(ctx context.Context, ids []string, usedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", ids).
		Update("last_used_at", usedAt).Error
}

func (q QuestionPostgreSQL) CountInScope(ctx context.Context, scope repositories.Scope) (int64, error) {
	var count int64
	err := q.scopeQuery(ctx, scope).Count(&count).Error
	return count, err
}

// scopeQuery builds the base query for active questions in (subject, class).
// Subject membership goes through the owning topic.
func (q QuestionPostgreSQL) scopeQuery(ctx context.Context, scope repositories.Scope) *gorm.DB {
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Joins("JOIN topics ON topics.id = questions.topic_id").
		Where("topics.subject_id = ?", scope.SubjectID).
		Where("questions.school_class_id = ?", scope.SchoolClassID).
		Where("questions.is_active = ?", true)
}

func (q QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Search != "" {
		query = query.Where("content ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.SubjectID != nil {
		query = query.
			Joins("JOIN topics ON topics.id = questions.topic_id").
			Where("topics.subject_id = ?", *filters.SubjectID)
	}
	if filters.SchoolClassID != nil {
		query = query.Where("school_class_id = ?", *filters.SchoolClassID)
	}
	if filters.TopicID != nil {
		query = query.Where("topic_id = ?", *filters.TopicID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}
