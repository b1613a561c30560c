package grant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrGrantNotFound = errors.New("grant not found")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(g *Grant) error
	FindByID(id uuid.UUID) (*Grant, error)
	FindAllByRecipientID(recipientID uuid.UUID) ([]Grant, error)
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

func (r *repository) Create(g *Grant) error {
	return r.db.Create(g).Error
}

func (r *repository) FindByID(id uuid.UUID) (*Grant, error) {
	var g Grant
	if err := r.db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindAllByRecipientID(recipientID uuid.UUID) ([]Grant, error) {
	var grants []Grant
	if err := r.db.Where("recipient_id = ?", recipientID).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}
