package objective

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrObjectiveNotFound = errors.New("objective not found")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(o *Objective) error
	Save(o *Objective) error
	FindByID(id uuid.UUID) (*Objective, error)
	FindByIDs(ids []uuid.UUID) ([]Objective, error)
	// FindOpenByIDsForGoal returns the first of ids that belongs to the
	// goal, regardless of status. Used when the client references an
	// existing objective explicitly.
	FindByIDsForGoal(ids []uuid.UUID, goalID uuid.UUID) (*Objective, error)
	// FindOpenByTitleForGoal matches on (goalId, title) among
	// objectives that are not Complete.
	FindOpenByTitleForGoal(title string, goalID uuid.UUID) (*Objective, error)
	FindOpenByIDsForOtherEntity(ids []uuid.UUID, otherEntityID uuid.UUID) (*Objective, error)
	FindOpenByTitleForOtherEntity(title string, otherEntityID uuid.UUID) (*Objective, error)
	FindAllByGoalIDs(goalIDs []uuid.UUID) ([]Objective, error)
	CountByGoalIDs(goalIDs []uuid.UUID) (int64, error)
	// EnsureAssociations creates any missing canonical join rows. It
	// never deletes: the canonical set only shrinks when the objective
	// itself is removed.
	EnsureAssociations(objectiveID uuid.UUID, topicIDs, resourceIDs, fileIDs, courseIDs []uuid.UUID) error
	FindAssociationIDs(objectiveIDs []uuid.UUID) (map[uuid.UUID]AssociationIDs, error)
	MarkOnAR(objectiveID uuid.UUID) error
	DeleteWithAssociations(ids []uuid.UUID) (DeletedCounts, error)
}

// AssociationIDs collects one objective's canonical association ids.
type AssociationIDs struct {
	TopicIDs    []uuid.UUID
	ResourceIDs []uuid.UUID
	FileIDs     []uuid.UUID
	CourseIDs   []uuid.UUID
}

// DeletedCounts reports what a destructive cleanup actually removed.
type DeletedCounts struct {
	Objectives int64 `json:"objectives"`
	Topics     int64 `json:"topics"`
	Resources  int64 `json:"resources"`
	Files      int64 `json:"files"`
	Courses    int64 `json:"courses"`
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

func (r *repository) Create(o *Objective) error {
	return r.db.Create(o).Error
}

func (r *repository) Save(o *Objective) error {
	return r.db.Save(o).Error
}

func (r *repository) FindByID(id uuid.UUID) (*Objective, error) {
	var o Objective
	if err := r.db.First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectiveNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) FindByIDs(ids []uuid.UUID) ([]Objective, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var objectives []Objective
	if err := r.db.Where("id IN ?", ids).Find(&objectives).Error; err != nil {
		return nil, err
	}
	return objectives, nil
}

func (r *repository) first(query *gorm.DB) (*Objective, error) {
	var o Objective
	if err := query.First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) FindByIDsForGoal(ids []uuid.UUID, goalID uuid.UUID) (*Objective, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.first(r.db.Where("id IN ? AND goal_id = ?", ids, goalID))
}

func (r *repository) FindOpenByTitleForGoal(title string, goalID uuid.UUID) (*Objective, error) {
	return r.first(r.db.Where(
		"goal_id = ? AND title = ? AND status <> ?",
		goalID, title, StatusComplete,
	))
}

func (r *repository) FindOpenByIDsForOtherEntity(ids []uuid.UUID, otherEntityID uuid.UUID) (*Objective, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.first(r.db.Where(
		"id IN ? AND other_entity_id = ? AND status <> ?",
		ids, otherEntityID, StatusComplete,
	))
}

func (r *repository) FindOpenByTitleForOtherEntity(title string, otherEntityID uuid.UUID) (*Objective, error) {
	return r.first(r.db.Where(
		"title = ? AND other_entity_id = ? AND status <> ?",
		title, otherEntityID, StatusComplete,
	))
}

func (r *repository) FindAllByGoalIDs(goalIDs []uuid.UUID) ([]Objective, error) {
	if len(goalIDs) == 0 {
		return nil, nil
	}
	var objectives []Objective
	if err := r.db.Where("goal_id IN ?", goalIDs).Find(&objectives).Error; err != nil {
		return nil, err
	}
	return objectives, nil
}

func (r *repository) CountByGoalIDs(goalIDs []uuid.UUID) (int64, error) {
	if len(goalIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&Objective{}).Where("goal_id IN ?", goalIDs).Count(&count).Error
	return count, err
}

func (r *repository) EnsureAssociations(objectiveID uuid.UUID, topicIDs, resourceIDs, fileIDs, courseIDs []uuid.UUID) error {
	for _, id := range topicIDs {
		row := ObjectiveTopic{ObjectiveID: objectiveID, TopicID: id}
		if err := r.db.Where("objective_id = ? AND topic_id = ?", objectiveID, id).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	for _, id := range resourceIDs {
		row := ObjectiveResource{ObjectiveID: objectiveID, ResourceID: id}
		if err := r.db.Where("objective_id = ? AND resource_id = ?", objectiveID, id).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	for _, id := range fileIDs {
		row := ObjectiveFile{ObjectiveID: objectiveID, FileID: id}
		if err := r.db.Where("objective_id = ? AND file_id = ?", objectiveID, id).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	for _, id := range courseIDs {
		row := ObjectiveCourse{ObjectiveID: objectiveID, CourseID: id}
		if err := r.db.Where("objective_id = ? AND course_id = ?", objectiveID, id).
			FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindAssociationIDs(objectiveIDs []uuid.UUID) (map[uuid.UUID]AssociationIDs, error) {
	out := make(map[uuid.UUID]AssociationIDs, len(objectiveIDs))
	if len(objectiveIDs) == 0 {
		return out, nil
	}

	var topics []ObjectiveTopic
	if err := r.db.Where("objective_id IN ?", objectiveIDs).Find(&topics).Error; err != nil {
		return nil, err
	}
	for _, row := range topics {
		a := out[row.ObjectiveID]
		a.TopicIDs = append(a.TopicIDs, row.TopicID)
		out[row.ObjectiveID] = a
	}

	var resources []ObjectiveResource
	if err := r.db.Where("objective_id IN ?", objectiveIDs).Find(&resources).Error; err != nil {
		return nil, err
	}
	for _, row := range resources {
		a := out[row.ObjectiveID]
		a.ResourceIDs = append(a.ResourceIDs, row.ResourceID)
		out[row.ObjectiveID] = a
	}

	var files []ObjectiveFile
	if err := r.db.Where("objective_id IN ?", objectiveIDs).Find(&files).Error; err != nil {
		return nil, err
	}
	for _, row := range files {
		a := out[row.ObjectiveID]
		a.FileIDs = append(a.FileIDs, row.FileID)
		out[row.ObjectiveID] = a
	}

	var courses []ObjectiveCourse
	if err := r.db.Where("objective_id IN ?", objectiveIDs).Find(&courses).Error; err != nil {
		return nil, err
	}
	for _, row := range courses {
		a := out[row.ObjectiveID]
		a.CourseIDs = append(a.CourseIDs, row.CourseID)
		out[row.ObjectiveID] = a
	}

	return out, nil
}

func (r *repository) MarkOnAR(objectiveID uuid.UUID) error {
	return r.db.Model(&Objective{}).
		Where("id = ? AND on_ar = ?", objectiveID, false).
		Update("on_ar", true).Error
}

func (r *repository) DeleteWithAssociations(ids []uuid.UUID) (DeletedCounts, error) {
	var counts DeletedCounts
	if len(ids) == 0 {
		return counts, nil
	}

	res := r.db.Where("objective_id IN ?", ids).Delete(&ObjectiveTopic{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Topics = res.RowsAffected

	res = r.db.Where("objective_id IN ?", ids).Delete(&ObjectiveResource{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Resources = res.RowsAffected

	res = r.db.Where("objective_id IN ?", ids).Delete(&ObjectiveFile{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Files = res.RowsAffected

	res = r.db.Where("objective_id IN ?", ids).Delete(&ObjectiveCourse{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Courses = res.RowsAffected

	res = r.db.Where("id IN ?", ids).Delete(&Objective{})
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Objectives = res.RowsAffected

	return counts, nil
}
