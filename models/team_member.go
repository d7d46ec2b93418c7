package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberOnLeave  MemberStatus = "on-leave"
	MemberInactive MemberStatus = "inactive"
)

var MemberStatuses = []MemberStatus{MemberActive, MemberOnLeave, MemberInactive}

// TeamMember is one person on the roster. Projects is a display label
// written when the member is assigned, not a foreign key.
type TeamMember struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string       `gorm:"size:255;not null" json:"name" validate:"required"`
	Role       string       `gorm:"size:100;index" json:"role,omitempty"`
	Specialty  string       `gorm:"size:255" json:"specialty,omitempty"`
	Phone      string       `gorm:"size:50" json:"phone,omitempty"`
	Email      string       `gorm:"size:255" json:"email,omitempty" validate:"omitempty,email"`
	Projects   string       `gorm:"type:text" json:"projects,omitempty"`
	Status     MemberStatus `gorm:"size:20;default:'active'" json:"status,omitempty" validate:"omitempty,oneof=active on-leave inactive"`
	Experience string       `gorm:"size:255" json:"experience,omitempty"`
	JoinDate   Date         `json:"join_date"`
	AvatarURL  string       `gorm:"size:500" json:"avatar_url,omitempty"`
	LastUpdate Date         `json:"last_update"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = MemberActive
	}
	return nil
}
