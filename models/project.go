package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectPending   ProjectStatus = "pending"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
)

// ProjectStatuses lists every status in display order.
var ProjectStatuses = []ProjectStatus{ProjectPending, ProjectActive, ProjectCompleted}

// Project is one construction site being tracked. Progress is entered by
// hand and never derived from progress updates.
type Project struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string        `gorm:"size:255;not null" json:"name" validate:"required"`
	Location    string        `gorm:"size:255;not null" json:"location" validate:"required"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	Status      ProjectStatus `gorm:"size:20;not null;default:'pending';index" json:"status" validate:"oneof=pending active completed"`
	Progress    float64       `gorm:"type:decimal(5,2);default:0" json:"progress" validate:"gte=0,lte=100"`
	StartDate   Date          `gorm:"not null" json:"start_date"`
	EndDate     Date          `gorm:"not null" json:"end_date"`
	TeamName    string        `gorm:"size:255" json:"team_name,omitempty"`
	Budget      float64       `gorm:"type:decimal(15,2);default:0" json:"budget" validate:"gte=0"`

	// Team member ids. The members themselves only carry a display label.
	AssignedMembers StringList `json:"assigned_members"`

	// Optional site coordinates for the project map.
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = ProjectPending
	}
	return nil
}

// HasLocation reports whether both coordinates are set.
func (p Project) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
