package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestDelivered RequestStatus = "delivered"
)

var RequestStatuses = []RequestStatus{RequestPending, RequestApproved, RequestRejected, RequestDelivered}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// MaterialRequest is a site's requisition of materials. RequestCode comes
// from the database sequence and is never set by clients.
type MaterialRequest struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequestCode   string        `gorm:"size:50;uniqueIndex;not null" json:"request_code"`
	ProjectID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"project_id" validate:"required"`
	Project       *Project      `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT" json:"-" validate:"-"`
	RequesterName string        `gorm:"size:255;not null" json:"requester_name" validate:"required"`
	RequestDate   Date          `gorm:"not null;index" json:"request_date"`
	Status        RequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status" validate:"oneof=pending approved rejected delivered"`
	Urgency       Urgency       `gorm:"size:20;not null;default:'normal'" json:"urgency" validate:"oneof=low normal high"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`
	ImagesURL     StringList    `json:"images_url"`

	ApprovedBy string     `gorm:"size:255" json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	Items []MaterialItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"material_items" validate:"required,min=1,dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MaterialRequest) TableName() string {
	return "material_requests"
}

func (r *MaterialRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = RequestPending
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyNormal
	}
	return nil
}

// MaterialItem is one line of a request.
//
// Unit is the legacy free-text field: forms put a unit of measure there, the
// approval screen puts the quantity actually consumed. Normalize splits it
// into UnitOfMeasure and ConsumedAmount; Amount reads the split value first.
type MaterialItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	ItemName       string    `gorm:"size:255;not null" json:"item_name" validate:"required"`
	Quantity       float64   `gorm:"not null" json:"quantity" validate:"gt=0"`
	Unit           string    `gorm:"size:50" json:"unit"`
	UnitOfMeasure  string    `gorm:"size:50" json:"unit_of_measure,omitempty"`
	ConsumedAmount float64   `gorm:"default:0" json:"consumed_amount"`
	CreatedAt      time.Time `json:"created_at"`
}

func (MaterialItem) TableName() string {
	return "material_items"
}

func (it *MaterialItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&it.ID)
	return nil
}

// Normalize fills UnitOfMeasure or ConsumedAmount from the legacy Unit text.
func (it *MaterialItem) Normalize() {
	if n, ok := parseAmount(it.Unit); ok {
		if it.ConsumedAmount == 0 {
			it.ConsumedAmount = n
		}
		return
	}
	if it.UnitOfMeasure == "" {
		it.UnitOfMeasure = strings.TrimSpace(it.Unit)
	}
}

// Amount is the consumed quantity this line withdraws from stock. Zero means
// the line consumes nothing (unset, zero, negative or not a number).
func (it MaterialItem) Amount() float64 {
	if it.ConsumedAmount > 0 {
		return it.ConsumedAmount
	}
	if n, ok := parseAmount(it.Unit); ok && n > 0 {
		return n
	}
	return 0
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
