package postgres

import (
	"context"

	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories"
	"gorm.io/gorm"
)

type topicPostgreSQL struct {
	db *gorm.DB
}

func NewTopicPostgreSQL(db *gorm.DB) repositories.TopicRepository {
	return &topicPostgreSQL{db: db}
}

func (r *topicPostgreSQL) Create(ctx context.Context, topic *models.Topic) error {
	return r.db.WithContext(ctx).Create(topic).Error
}

func (r *topicPostgreSQL) GetByID(ctx context.Context, id string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).First(&topic, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicPostgreSQL) GetByIDWithSubject(ctx context.Context, id string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Preload("Subject").First(&topic, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *topicPostgreSQL) ListBySubject(ctx context.Context, subjectID string) ([]*models.Topic, error) {
	var topics []*models.Topic
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("name asc").
		Find(&topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

type schoolClassPostgreSQL struct {
	db *gorm.DB
}

func NewSchoolClassPostgreSQL(db *gorm.DB) repositories.SchoolClassRepository {
	return &schoolClassPostgreSQL{db: db}
}

func (r *schoolClassPostgreSQL) Create(ctx context.Context, class *models.SchoolClass) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *schoolClassPostgreSQL) GetByID(ctx context.Context, id string) (*models.SchoolClass, error) {
	var class models.SchoolClass
	if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *schoolClassPostgreSQL) List(ctx context.Context) ([]*models.SchoolClass, error) {
	var classes []*models.SchoolClass
	if err := r.db.WithContext(ctx).Order("name asc").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}
