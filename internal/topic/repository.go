package topic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(t *Topic) error
	FindByIDs(ids []uuid.UUID) ([]Topic, error)
	// FindByNames resolves ad hoc topics supplied without an id.
	FindByNames(names []string) ([]Topic, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(t *Topic) error {
	return r.db.Create(t).Error
}

func (r *repository) FindByIDs(ids []uuid.UUID) ([]Topic, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var topics []Topic
	if err := r.db.Where("id IN ?", ids).Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *repository) FindByNames(names []string) ([]Topic, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var topics []Topic
	if err := r.db.Where("name IN ?", names).Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}
