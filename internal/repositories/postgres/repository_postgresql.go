package postgres

import (
	"context"

	"github.com/edupath/cbt-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db          *gorm.DB
	question    repositories.QuestionRepository
	exam        repositories.ExamRepository
	attempt     repositories.AttemptRepository
	answer      repositories.AnswerRepository
	topic       repositories.TopicRepository
	schoolClass repositories.SchoolClassRepository
	user        repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:          db,
		question:    NewQuestionPostgreSQL(db),
		exam:        NewExamPostgreSQL(db),
		attempt:     NewAttemptPostgreSQL(db),
		answer:      NewAnswerPostgreSQL(db),
		topic:       NewTopicPostgreSQL(db),
		schoolClass: NewSchoolClassPostgreSQL(db),
		user:        NewUserPostgreSQL(db),
	}
}

func (r *gormRepository) Question() repositories.QuestionRepository       { return r.question }
func (r *gormRepository) Exam() repositories.ExamRepository               { return r.exam }
func (r *gormRepository) Attempt() repositories.AttemptRepository         { return r.attempt }
func (r *gormRepository) Answer() repositories.AnswerRepository           { return r.answer }
func (r *gormRepository) Topic() repositories.TopicRepository             { return r.topic }
func (r *gormRepository) SchoolClass() repositories.SchoolClassRepository { return r.schoolClass }
func (r *gormRepository) User() repositories.UserRepository               { return r.user }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// applyPaginationAndSort applies limit/offset and a whitelisted sort column.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, allowed map[string]bool) *gorm.DB {
	if sortBy != "" && allowed[sortBy] {
		order := "asc"
		if sortOrder == "desc" {
			order = "desc"
		}
		query = query.Order(sortBy + " " + order)
	} else {
		query = query.Order("created_at desc")
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
