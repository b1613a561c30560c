package goal

import (
	"time"

	"github.com/fieldreach/goalsync-lambda/internal/grant"
	util "github.com/fieldreach/goalsync-lambda/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Goal is one canonical row per grant. Several rows with the same name
// across a recipient's grants represent one logical goal; the rollup
// merges them for the client.
type Goal struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Status         Status          `gorm:"not null" json:"status"`
	GrantID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"grant_id"`
	Grant          grant.Grant     `gorm:"foreignKey:GrantID" json:"-"`
	GoalTemplateID *uuid.UUID      `gorm:"type:uuid" json:"goal_template_id,omitempty"`
	CreatedVia     CreatedVia      `gorm:"not null" json:"created_via"`
	EndDate        *util.LocalDate `gorm:"type:date" json:"end_date,omitempty"`
	OnAR           bool            `gorm:"not null;default:false" json:"on_ar"`
	OnApprovedAR   bool            `gorm:"not null;default:false" json:"on_approved_ar"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GoalTemplate links sibling goals across grants. Templates are
// authored elsewhere; the engine only validates references to them.
type GoalTemplate struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateName string    `gorm:"not null" json:"template_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *GoalTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
