package reportcache

import (
	"time"

	"github.com/fieldreach/goalsync-lambda/internal/course"
	"github.com/fieldreach/goalsync-lambda/internal/file"
	"github.com/fieldreach/goalsync-lambda/internal/resource"
	"github.com/fieldreach/goalsync-lambda/internal/topic"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportGoal links a goal to an activity report and snapshots the
// fields as they stood when the report was saved. The snapshot survives
// later canonical edits so an approved report keeps reading what its
// authors wrote.
type ReportGoal struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityReportID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_goal" json:"activity_report_id"`
	GoalID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_report_goal" json:"goal_id"`
	Name             string          `gorm:"not null" json:"name"`
	Status           string          `gorm:"not null" json:"status"`
	EndDate          *util.LocalDate `gorm:"type:date" json:"end_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (rg *ReportGoal) BeforeCreate(tx *gorm.DB) error {
	if rg.ID == uuid.Nil {
		rg.ID = uuid.New()
	}
	return nil
}

// ReportObjective links an objective to an activity report with its
// snapshot fields. Order preserves the position the objective held in
// the report's form.
type ReportObjective struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActivityReportID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_report_objective" json:"activity_report_id"`
	ObjectiveID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_report_objective" json:"objective_id"`
	Title            string    `gorm:"not null" json:"title"`
	Status           string    `gorm:"not null" json:"status"`
	TTAProvided      string    `json:"tta_provided,omitempty"`
	Order            int       `gorm:"column:ar_order;not null;default:0" json:"order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Topics    []ReportObjectiveTopic    `gorm:"foreignKey:ReportObjectiveID" json:"topics"`
	Resources []ReportObjectiveResource `gorm:"foreignKey:ReportObjectiveID" json:"resources"`
	Files     []ReportObjectiveFile     `gorm:"foreignKey:ReportObjectiveID" json:"files"`
	Courses   []ReportObjectiveCourse   `gorm:"foreignKey:ReportObjectiveID" json:"courses"`
	Citations []ReportObjectiveCitation `gorm:"foreignKey:ReportObjectiveID" json:"citations"`
}

func (ro *ReportObjective) BeforeCreate(tx *gorm.DB) error {
	if ro.ID == uuid.Nil {
		ro.ID = uuid.New()
	}
	return nil
}

type ReportObjectiveTopic struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ReportObjectiveID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_ro_topic" json:"report_objective_id"`
	TopicID           uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_ro_topic" json:"topic_id"`
	Topic             topic.Topic `gorm:"foreignKey:TopicID" json:"topic"`
	CreatedAt         time.Time   `json:"created_at"`
}

func (l *ReportObjectiveTopic) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type ReportObjectiveResource struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ReportObjectiveID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_ro_resource" json:"report_objective_id"`
	ResourceID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_ro_resource" json:"resource_id"`
	Resource          resource.Resource `gorm:"foreignKey:ResourceID" json:"resource"`
	CreatedAt         time.Time         `json:"created_at"`
}

func (l *ReportObjectiveResource) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type ReportObjectiveFile struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReportObjectiveID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ro_file" json:"report_objective_id"`
	FileID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ro_file" json:"file_id"`
	File              file.File `gorm:"foreignKey:FileID" json:"file"`
	CreatedAt         time.Time `json:"created_at"`
}

func (l *ReportObjectiveFile) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type ReportObjectiveCourse struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ReportObjectiveID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_ro_course" json:"report_objective_id"`
	CourseID          uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_ro_course" json:"course_id"`
	Course            course.Course `gorm:"foreignKey:CourseID" json:"course"`
	CreatedAt         time.Time     `json:"created_at"`
}

func (l *ReportObjectiveCourse) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ReportObjectiveCitation carries the monitoring provenance that makes
// a citation reviewable later. Citations are replaced wholesale on each
// save rather than diffed, so the provenance never goes stale.
type ReportObjectiveCitation struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ReportObjectiveID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"report_objective_id"`
	Citation             string         `gorm:"not null" json:"citation"`
	MonitoringReferences datatypes.JSON `json:"monitoring_references"`
	CreatedAt            time.Time      `json:"created_at"`
}

func (l *ReportObjectiveCitation) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
