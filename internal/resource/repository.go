package resource

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEmptyURL = errors.New("resource url is empty")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ids []uuid.UUID) ([]Resource, error)
	// FindOrCreateByURL resolves a URL to its canonical row, creating
	// one the first time the URL is seen.
	FindOrCreateByURL(url string) (*Resource, error)
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

func (r *repository) FindByIDs(ids []uuid.UUID) ([]Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resources []Resource
	if err := r.db.Where("id IN ?", ids).Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

func (r *repository) FindOrCreateByURL(url string) (*Resource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	var res Resource
	err := r.db.Where("url = ?", url).First(&res).Error
	if err == nil {
		return &res, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	res = Resource{URL: url}
	if err := r.db.Create(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}
