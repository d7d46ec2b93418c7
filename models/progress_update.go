package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressUpdate is a dated site report with photos.
type ProgressUpdate struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id" validate:"required"`
	Project            *Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`
	UpdateDate         Date       `gorm:"not null;index" json:"update_date"`
	ProgressPercentage int        `gorm:"not null" json:"progress_percentage" validate:"gte=0,lte=100"`
	Description        string     `gorm:"type:text;not null" json:"description" validate:"required"`
	PhotosURL          StringList `json:"photos_url"`
	UpdatedBy          string     `gorm:"size:255;not null" json:"updated_by" validate:"required"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (ProgressUpdate) TableName() string {
	return "progress_updates"
}

func (u *ProgressUpdate) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.UpdateDate.IsZero() {
		u.UpdateDate = NewDate(time.Now())
	}
	return nil
}
