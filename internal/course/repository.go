package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(c *Course) error
	FindByIDs(ids []uuid.UUID) ([]Course, error)
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

func (r *repository) Create(c *Course) error {
	return r.db.Create(c).Error
}

func (r *repository) FindByIDs(ids []uuid.UUID) ([]Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []Course
	if err := r.db.Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}
