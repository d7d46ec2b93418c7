package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tracking categories as shown in the tracking table filter.
const (
	CategoryWithdrawn       = "withdrawn"
	CategoryBranchWithdrawn = "branch-withdrawn"
	CategoryReturned        = "returned"
)

// UsageLedger maps a calendar date ("2006-01-02") to the amount withdrawn
// that day.
type UsageLedger map[string]float64

func (l UsageLedger) Clone() UsageLedger {
	out := make(UsageLedger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l UsageLedger) Sum() float64 {
	var total float64
	for _, v := range l {
		total += v
	}
	return total
}

// MaterialTracking is the per-project stock row for one material
// description. RemainingQuantity is stored but always recomputed as
// TotalQuantity - UsedQuantity.
type MaterialTracking struct {
	ID                uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID         uuid.UUID                       `gorm:"type:uuid;not null;index" json:"project_id" validate:"required"`
	Project           *Project                        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Description       string                          `gorm:"size:255;not null;index" json:"description" validate:"required"`
	Category          string                          `gorm:"size:50;default:'withdrawn'" json:"category"`
	TotalQuantity     float64                         `gorm:"not null;default:0" json:"total_quantity" validate:"gte=0"`
	UsedQuantity      float64                         `gorm:"not null;default:0" json:"used_quantity"`
	RemainingQuantity float64                         `gorm:"default:0" json:"remaining_quantity"`
	DateUsage         datatypes.JSONType[UsageLedger] `json:"date_usage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MaterialTracking) TableName() string {
	return "material_tracking"
}

func (t *MaterialTracking) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	if t.Category == "" {
		t.Category = CategoryWithdrawn
	}
	if t.DateUsage.Data() == nil {
		t.SetLedger(UsageLedger{})
	}
	t.Recompute()
	return nil
}

// Ledger returns a copy of the usage ledger, never nil.
func (t MaterialTracking) Ledger() UsageLedger {
	return t.DateUsage.Data().Clone()
}

func (t *MaterialTracking) SetLedger(l UsageLedger) {
	t.DateUsage = datatypes.NewJSONType(l)
}

// Recompute derives RemainingQuantity from total and used.
func (t *MaterialTracking) Recompute() {
	t.RemainingQuantity = t.TotalQuantity - t.UsedQuantity
}
