package grant

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Grant is the funding award a goal is tracked against. Several grants
// can belong to one recipient, which is how "the same" goal exists as
// multiple rows across grants.
type Grant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Number      string    `gorm:"not null" json:"number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g *Grant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
