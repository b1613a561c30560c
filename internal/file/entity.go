package file

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File rows are created by the upload service, which is outside this
// system. The engine only links existing files to objectives.
type File struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OriginalFileName string    `gorm:"not null" json:"original_file_name"`
	Key              string    `gorm:"not null" json:"key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
