package objective

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Objective is the canonical row. GoalID is nil for objectives attached
// directly to an other entity instead of a recipient goal; exactly one
// of GoalID and OtherEntityID is set.
type Objective struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Status        Status     `gorm:"not null" json:"status"`
	GoalID        *uuid.UUID `gorm:"type:uuid;index" json:"goal_id,omitempty"`
	OtherEntityID *uuid.UUID `gorm:"type:uuid;index" json:"other_entity_id,omitempty"`
	CreatedVia    string     `gorm:"not null" json:"created_via"`
	// OnAR flips to true the first time any report caches this
	// objective's associations. One-way transition.
	OnAR         bool      `gorm:"not null;default:false" json:"on_ar"`
	OnApprovedAR bool      `gorm:"not null;default:false" json:"on_approved_ar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (o *Objective) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Canonical association rows, owned by the objective itself. The
// per-report snapshot rows live in the reportcache package.

type ObjectiveTopic struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ObjectiveID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_topic"`
	TopicID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_topic"`
	CreatedAt   time.Time
}

func (t *ObjectiveTopic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type ObjectiveResource struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ObjectiveID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_resource"`
	ResourceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_resource"`
	CreatedAt   time.Time
}

func (r *ObjectiveResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ObjectiveFile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ObjectiveID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_file"`
	FileID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_file"`
	CreatedAt   time.Time
}

func (f *ObjectiveFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type ObjectiveCourse struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ObjectiveID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_course"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_objective_course"`
	CreatedAt   time.Time
}

func (c *ObjectiveCourse) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
