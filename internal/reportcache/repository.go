package reportcache

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindGoalLink(reportID, goalID uuid.UUID) (*ReportGoal, error)
	SaveGoalLink(link *ReportGoal) error
	FindGoalLinksForReport(reportID uuid.UUID) ([]ReportGoal, error)
	FindGoalLinksForGoals(goalIDs []uuid.UUID) ([]ReportGoal, error)
	// RemoveGoalLinksNotIn deletes the report's goal links outside keep
	// and returns the goal ids that were unlinked.
	RemoveGoalLinksNotIn(reportID uuid.UUID, keep []uuid.UUID) ([]uuid.UUID, error)
	CountGoalLinks(goalID uuid.UUID, excludeReportID uuid.UUID) (int64, error)

	FindObjectiveLink(reportID, objectiveID uuid.UUID) (*ReportObjective, error)
	SaveObjectiveLink(link *ReportObjective) error
	FindObjectiveLinksForReport(reportID uuid.UUID) ([]ReportObjective, error)
	FindObjectiveLinksForObjectives(objectiveIDs []uuid.UUID) ([]ReportObjective, error)
	// RemoveObjectiveLinksNotIn deletes the report's objective links
	// outside keep, along with their association rows, and returns the
	// objective ids that were unlinked.
	RemoveObjectiveLinksNotIn(reportID uuid.UUID, keep []uuid.UUID) ([]uuid.UUID, error)
	CountObjectiveLinks(objectiveID uuid.UUID, excludeReportID uuid.UUID) (int64, error)

	FindTopicLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveTopic, error)
	CreateTopicLinks(links []ReportObjectiveTopic) error
	DeleteTopicLinks(ids []uuid.UUID) error

	FindResourceLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveResource, error)
	CreateResourceLinks(links []ReportObjectiveResource) error
	DeleteResourceLinks(ids []uuid.UUID) error

	FindFileLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveFile, error)
	CreateFileLinks(links []ReportObjectiveFile) error
	DeleteFileLinks(ids []uuid.UUID) error

	FindCourseLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveCourse, error)
	CreateCourseLinks(links []ReportObjectiveCourse) error
	DeleteCourseLinks(ids []uuid.UUID) error

	ReplaceCitations(reportObjectiveID uuid.UUID, rows []ReportObjectiveCitation) error
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

func (r *repository) FindGoalLink(reportID, goalID uuid.UUID) (*ReportGoal, error) {
	var link ReportGoal
	err := r.db.First(&link, "activity_report_id = ? AND goal_id = ?", reportID, goalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repository) SaveGoalLink(link *ReportGoal) error {
	return r.db.Save(link).Error
}

func (r *repository) FindGoalLinksForReport(reportID uuid.UUID) ([]ReportGoal, error) {
	var links []ReportGoal
	err := r.db.Where("activity_report_id = ?", reportID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) FindGoalLinksForGoals(goalIDs []uuid.UUID) ([]ReportGoal, error) {
	if len(goalIDs) == 0 {
		return nil, nil
	}
	var links []ReportGoal
	err := r.db.Where("goal_id IN ?", goalIDs).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) RemoveGoalLinksNotIn(reportID uuid.UUID, keep []uuid.UUID) ([]uuid.UUID, error) {
	query := r.db.Where("activity_report_id = ?", reportID)
	if len(keep) > 0 {
		query = query.Where("goal_id NOT IN ?", keep)
	}

	var stale []ReportGoal
	if err := query.Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	linkIDs := make([]uuid.UUID, len(stale))
	goalIDs := make([]uuid.UUID, len(stale))
	for i, l := range stale {
		linkIDs[i] = l.ID
		goalIDs[i] = l.GoalID
	}
	if err := r.db.Where("id IN ?", linkIDs).Delete(&ReportGoal{}).Error; err != nil {
		return nil, err
	}
	return goalIDs, nil
}

func (r *repository) CountGoalLinks(goalID uuid.UUID, excludeReportID uuid.UUID) (int64, error) {
	query := r.db.Model(&ReportGoal{}).Where("goal_id = ?", goalID)
	if excludeReportID != uuid.Nil {
		query = query.Where("activity_report_id <> ?", excludeReportID)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func (r *repository) FindObjectiveLink(reportID, objectiveID uuid.UUID) (*ReportObjective, error) {
	var link ReportObjective
	err := r.db.First(&link, "activity_report_id = ? AND objective_id = ?", reportID, objectiveID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repository) SaveObjectiveLink(link *ReportObjective) error {
	return r.db.Omit("Topics", "Resources", "Files", "Courses", "Citations").Save(link).Error
}

func (r *repository) preloadAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Topics.Topic").
		Preload("Resources.Resource").
		Preload("Files.File").
		Preload("Courses.Course").
		Preload("Citations")
}

func (r *repository) FindObjectiveLinksForReport(reportID uuid.UUID) ([]ReportObjective, error) {
	var links []ReportObjective
	err := r.preloadAssociations(r.db).
		Where("activity_report_id = ?", reportID).
		Order("ar_order").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) FindObjectiveLinksForObjectives(objectiveIDs []uuid.UUID) ([]ReportObjective, error) {
	if len(objectiveIDs) == 0 {
		return nil, nil
	}
	var links []ReportObjective
	err := r.preloadAssociations(r.db).
		Where("objective_id IN ?", objectiveIDs).
		Order("ar_order").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) RemoveObjectiveLinksNotIn(reportID uuid.UUID, keep []uuid.UUID) ([]uuid.UUID, error) {
	query := r.db.Where("activity_report_id = ?", reportID)
	if len(keep) > 0 {
		query = query.Where("objective_id NOT IN ?", keep)
	}

	var stale []ReportObjective
	if err := query.Find(&stale).Error; err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}

	linkIDs := make([]uuid.UUID, len(stale))
	objectiveIDs := make([]uuid.UUID, len(stale))
	for i, l := range stale {
		linkIDs[i] = l.ID
		objectiveIDs[i] = l.ObjectiveID
	}

	for _, model := range []any{
		&ReportObjectiveTopic{},
		&ReportObjectiveResource{},
		&ReportObjectiveFile{},
		&ReportObjectiveCourse{},
		&ReportObjectiveCitation{},
	} {
		if err := r.db.Where("report_objective_id IN ?", linkIDs).Delete(model).Error; err != nil {
			return nil, err
		}
	}
	if err := r.db.Where("id IN ?", linkIDs).Delete(&ReportObjective{}).Error; err != nil {
		return nil, err
	}
	return objectiveIDs, nil
}

func (r *repository) CountObjectiveLinks(objectiveID uuid.UUID, excludeReportID uuid.UUID) (int64, error) {
	query := r.db.Model(&ReportObjective{}).Where("objective_id = ?", objectiveID)
	if excludeReportID != uuid.Nil {
		query = query.Where("activity_report_id <> ?", excludeReportID)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}

func (r *repository) FindTopicLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveTopic, error) {
	var links []ReportObjectiveTopic
	err := r.db.Where("report_objective_id = ?", reportObjectiveID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) CreateTopicLinks(links []ReportObjectiveTopic) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

func (r *repository) DeleteTopicLinks(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&ReportObjectiveTopic{}).Error
}

func (r *repository) FindResourceLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveResource, error) {
	var links []ReportObjectiveResource
	err := r.db.Where("report_objective_id = ?", reportObjectiveID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) CreateResourceLinks(links []ReportObjectiveResource) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

func (r *repository) DeleteResourceLinks(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&ReportObjectiveResource{}).Error
}

func (r *repository) FindFileLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveFile, error) {
	var links []ReportObjectiveFile
	err := r.db.Where("report_objective_id = ?", reportObjectiveID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) CreateFileLinks(links []ReportObjectiveFile) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

func (r *repository) DeleteFileLinks(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&ReportObjectiveFile{}).Error
}

func (r *repository) FindCourseLinks(reportObjectiveID uuid.UUID) ([]ReportObjectiveCourse, error) {
	var links []ReportObjectiveCourse
	err := r.db.Where("report_objective_id = ?", reportObjectiveID).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) CreateCourseLinks(links []ReportObjectiveCourse) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.Create(&links).Error
}

func (r *repository) DeleteCourseLinks(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&ReportObjectiveCourse{}).Error
}

func (r *repository) ReplaceCitations(reportObjectiveID uuid.UUID, rows []ReportObjectiveCitation) error {
	err := r.db.Where("report_objective_id = ?", reportObjectiveID).
		Delete(&ReportObjectiveCitation{}).Error
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.Create(&rows).Error
}
