package goal

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGoalNotFound         = errors.New("goal not found")
	ErrGoalTemplateNotFound = errors.New("goal template not found")
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(g *Goal) error
	Save(g *Goal) error
	FindByID(id uuid.UUID) (*Goal, error)
	FindByIDs(ids []uuid.UUID) ([]Goal, error)
	// FindOpenByIDsForGrant returns the candidate row among ids that
	// belongs to the grant and is not Closed, or nil.
	FindOpenByIDsForGrant(ids []uuid.UUID, grantID uuid.UUID) (*Goal, error)
	// FindOpenByName matches on (grantId, name) among goals that are
	// not Closed, or nil.
	FindOpenByName(name string, grantID uuid.UUID) (*Goal, error)
	FindByIDsForRecipient(ids []uuid.UUID, recipientID uuid.UUID) ([]Goal, error)
	FindTemplateByID(id uuid.UUID) (*GoalTemplate, error)
	MarkOnAR(goalID uuid.UUID) error
	// FindRemovable narrows ids to goals that were authored through a
	// report and never reached an approved one.
	FindRemovable(ids []uuid.UUID) ([]Goal, error)
	Delete(ids []uuid.UUID) (int64, error)
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

func (r *repository) Create(g *Goal) error {
	return r.db.Create(g).Error
}

func (r *repository) Save(g *Goal) error {
	return r.db.Save(g).Error
}

func (r *repository) FindByID(id uuid.UUID) (*Goal, error) {
	var g Goal
	if err := r.db.Preload("Grant").First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindByIDs(ids []uuid.UUID) ([]Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var goals []Goal
	if err := r.db.Preload("Grant").Where("id IN ?", ids).Find(&goals).Error; err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repository) first(query *gorm.DB) (*Goal, error) {
	var g Goal
	if err := query.First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindOpenByIDsForGrant(ids []uuid.UUID, grantID uuid.UUID) (*Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.first(r.db.Where(
		"id IN ? AND grant_id = ? AND status <> ?",
		ids, grantID, StatusClosed,
	))
}

func (r *repository) FindOpenByName(name string, grantID uuid.UUID) (*Goal, error) {
	return r.first(r.db.Where(
		"name = ? AND grant_id = ? AND status <> ?",
		name, grantID, StatusClosed,
	))
}

func (r *repository) FindByIDsForRecipient(ids []uuid.UUID, recipientID uuid.UUID) ([]Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var goals []Goal
	err := r.db.Preload("Grant").
		Joins("JOIN grants ON grants.id = goals.grant_id").
		Where("goals.id IN ? AND grants.recipient_id = ?", ids, recipientID).
		Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repository) FindTemplateByID(id uuid.UUID) (*GoalTemplate, error) {
	var t GoalTemplate
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGoalTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) MarkOnAR(goalID uuid.UUID) error {
	return r.db.Model(&Goal{}).
		Where("id = ? AND on_ar = ?", goalID, false).
		Update("on_ar", true).Error
}

func (r *repository) FindRemovable(ids []uuid.UUID) ([]Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var goals []Goal
	err := r.db.Where(
		"id IN ? AND created_via = ? AND on_approved_ar = ?",
		ids, CreatedViaActivityReport, false,
	).Find(&goals).Error
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *repository) Delete(ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.Where("id IN ?", ids).Delete(&Goal{})
	return res.RowsAffected, res.Error
}
