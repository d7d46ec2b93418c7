package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/metrics"
)

const requestsCollection = "material_requests"

type MaterialRequestStore struct {
	db       *gorm.DB
	cache    *cache[models.MaterialRequest]
	codes    CodeGenerator
	projects *ProjectStore
	tracking *MaterialTrackingStore
	log      *slog.Logger
}

func NewMaterialRequestStore(db *gorm.DB, codes CodeGenerator, projects *ProjectStore, tracking *MaterialTrackingStore, log *slog.Logger) *MaterialRequestStore {
	return &MaterialRequestStore{
		db:       db,
		cache:    newCache(func(r models.MaterialRequest) uuid.UUID { return r.ID }),
		codes:    codes,
		projects: projects,
		tracking: tracking,
		log:      log,
	}
}

// MaterialRequestPatch edits the header of a request. Status changes go
// through UpdateStatus and line items are fixed once created.
type MaterialRequestPatch struct {
	RequesterName *string            `json:"requester_name"`
	RequestDate   *models.Date       `json:"request_date"`
	Urgency       *models.Urgency    `json:"urgency"`
	Notes         *string            `json:"notes"`
	ImagesURL     *models.StringList `json:"images_url"`
}

func (p MaterialRequestPatch) apply(dst *models.MaterialRequest) []string {
	var cols []string
	cols = set(cols, "requester_name", &dst.RequesterName, p.RequesterName)
	cols = set(cols, "request_date", &dst.RequestDate, p.RequestDate)
	cols = set(cols, "urgency", &dst.Urgency, p.Urgency)
	cols = set(cols, "notes", &dst.Notes, p.Notes)
	cols = set(cols, "images_url", &dst.ImagesURL, p.ImagesURL)
	return cols
}

func validateRequest(r *models.MaterialRequest) error {
	return check(r, func(v *ValidationError) {
		if r.RequestDate.IsZero() {
			v.add("request_date", "is required")
		}
	})
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (s *MaterialRequestStore) List(ctx context.Context) ([]models.MaterialRequest, error) {
	if items, ok := s.cache.snapshot(); ok {
		return items, nil
	}
	return s.Refresh(ctx)
}

func (s *MaterialRequestStore) Refresh(ctx context.Context) ([]models.MaterialRequest, error) {
	items, err := listAll[models.MaterialRequest](ctx, s.db, requestsCollection, withItems)
	if err != nil {
		return nil, err
	}
	s.cache.replace(items)
	return items, nil
}

// ListApproved returns the cached approved requests, optionally for one
// project only.
func (s *MaterialRequestStore) ListApproved(ctx context.Context, projectID uuid.UUID) ([]models.MaterialRequest, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.MaterialRequest
	for _, r := range all {
		if r.Status != models.RequestApproved {
			continue
		}
		if projectID != uuid.Nil && r.ProjectID != projectID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MaterialRequestStore) Get(ctx context.Context, id uuid.UUID) (*models.MaterialRequest, error) {
	return getByID[models.MaterialRequest](ctx, s.db, requestsCollection, id, withItems)
}

// Create validates r, obtains a request code, then writes the request and
// its items in one transaction. New requests always start pending. Tracking
// rows are seeded afterwards for descriptions the project does not track.
func (s *MaterialRequestStore) Create(ctx context.Context, r *models.MaterialRequest) error {
	r.ID = uuid.Nil
	r.RequestCode = ""
	r.Status = models.RequestPending
	r.ApprovedBy = ""
	r.ApprovedAt = nil
	if r.Urgency == "" {
		r.Urgency = models.UrgencyNormal
	}
	if r.RequestDate.IsZero() {
		r.RequestDate = models.NewDate(time.Now())
	}
	for i := range r.Items {
		r.Items[i].ID = uuid.Nil
		r.Items[i].RequestID = uuid.Nil
		r.Items[i].Normalize()
	}
	if err := validateRequest(r); err != nil {
		return err
	}

	ok, err := s.projects.Exists(ctx, r.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("project_id", "does not match a project")
	}

	code, err := s.codes.Next(ctx)
	if err != nil {
		return persistErr("generate_code", requestsCollection, err)
	}
	r.RequestCode = code

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(r).Error
	})
	if err != nil {
		return persistErr("create", requestsCollection, err)
	}
	s.cache.prepend(*r)

	if s.tracking != nil {
		s.tracking.seed(ctx, *r)
	}
	return nil
}

func (s *MaterialRequestStore) Update(ctx context.Context, id uuid.UUID, patch MaterialRequestPatch) (*models.MaterialRequest, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.apply(r)
	if err := validateRequest(r); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return r, nil
	}
	if err := updateColumns(ctx, s.db, requestsCollection, r, append(cols, "updated_at")); err != nil {
		return nil, err
	}
	s.cache.swap(*r)
	return r, nil
}

// statusMoves lists where a request may go from each status. Approved is
// only reachable from pending, so a request's items are consumed at most once.
var statusMoves = map[models.RequestStatus][]models.RequestStatus{
	models.RequestPending:  {models.RequestApproved, models.RequestRejected},
	models.RequestApproved: {models.RequestDelivered},
	models.RequestRejected: {models.RequestPending},
}

func canMove(from, to models.RequestStatus) bool {
	for _, s := range statusMoves[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves a request to status and returns it together with the
// status it had before. Setting the current status again is a no-op.
// Entering approved stamps ApprovedBy and ApprovedAt. The write only lands
// if the stored status is still the one read, otherwise ErrConflict.
func (s *MaterialRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus, actor string) (*models.MaterialRequest, models.RequestStatus, error) {
	if !validStatus(status) {
		return nil, "", invalid("status", "must be one of: pending, approved, rejected, delivered")
	}

	var (
		r    models.MaterialRequest
		prev models.RequestStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withItems(tx).First(&r, "id = ?", id).Error; err != nil {
			return err
		}
		prev = r.Status
		if prev == status {
			return nil
		}
		if !canMove(prev, status) {
			return invalid("status", fmt.Sprintf("cannot move from %s to %s", prev, status))
		}
		r.Status = status
		cols := []string{"status", "updated_at"}
		if status == models.RequestApproved {
			now := time.Now()
			r.ApprovedBy = actor
			r.ApprovedAt = &now
			cols = append(cols, "approved_by", "approved_at")
		}
		res := tx.Model(&r).Where("status = ?", prev).Select(cols).Omit("Items").Updates(&r)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
	var verr *ValidationError
	if errors.As(err, &verr) {
		return nil, "", verr
	}
	if err != nil {
		return nil, "", persistErr("update_status", requestsCollection, err)
	}
	if prev != status {
		s.cache.swap(r)
		metrics.RequestStatusChanges.WithLabelValues(string(status)).Inc()
	}
	return &r, prev, nil
}

// Delete removes the request and its items.
func (s *MaterialRequestStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("request_id = ?", id).Delete(&models.MaterialItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.MaterialRequest{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return persistErr("delete", requestsCollection, err)
	}
	s.cache.remove(id)
	return nil
}

func validStatus(s models.RequestStatus) bool {
	for _, v := range models.RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}
