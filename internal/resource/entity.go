package resource

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is a canonical URL row. The URL is the identity: two
// objectives pointing at the same URL share one Resource.
type Resource struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URL       string    `gorm:"not null;uniqueIndex" json:"url"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
