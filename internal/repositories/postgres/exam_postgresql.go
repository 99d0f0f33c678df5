package postgres

import (
	"context"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e ExamPostgreSQL) GetByID(ctx context.Context, id string) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).
		Preload("Subject").
		Preload("SchoolClass").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Question.Options").
		First(&exam, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Save(exam).Error
}

func (e ExamPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error {
	return e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (e ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var exams []*models.Exam
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Exam{})
	query = e.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		map[string]bool{"created_at": true, "title": true, "start_time": true})

	if err := query.Preload("Subject").Preload("SchoolClass").Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (e ExamPostgreSQL) ReplaceQuestions(ctx context.Context, examID string, questionIDs []string) error {
	db := e.db.WithContext(ctx)

	if err := db.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
		return err
	}
	if len(questionIDs) == 0 {
		return nil
	}

	rows := make([]models.ExamQuestion, 0, len(questionIDs))
	for i, id := range questionIDs {
		rows = append(rows, models.ExamQuestion{
			ExamID:     examID,
			QuestionID: id,
			Marks:      1,
			Position:   i + 1,
		})
	}
	return db.Create(&rows).Error
}

func (e ExamPostgreSQL) GetQuestionSet(ctx context.Context, examID string) ([]*models.ExamQuestion, error) {
	var set []*models.ExamQuestion
	if err := e.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("position ASC").
		Find(&set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

func (e ExamPostgreSQL) QuestionCount(ctx context.Context, examID string) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

func (e ExamPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.SchoolClassID != nil {
		query = query.Where("school_class_id = ?", *filters.SchoolClassID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}
