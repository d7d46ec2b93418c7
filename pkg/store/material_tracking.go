package store

import (
	"context"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
)

const trackingCollection = "material_tracking"

type MaterialTrackingStore struct {
	db       *gorm.DB
	cache    *cache[models.MaterialTracking]
	projects *ProjectStore
	log      *slog.Logger
}

func NewMaterialTrackingStore(db *gorm.DB, projects *ProjectStore, log *slog.Logger) *MaterialTrackingStore {
	return &MaterialTrackingStore{
		db:       db,
		cache:    newCache(func(t models.MaterialTracking) uuid.UUID { return t.ID }),
		projects: projects,
		log:      log,
	}
}

// MaterialTrackingPatch edits a tracking row by hand. Remaining quantity is
// always recomputed and cannot be patched.
type MaterialTrackingPatch struct {
	Description   *string  `json:"description"`
	Category      *string  `json:"category"`
	TotalQuantity *float64 `json:"total_quantity"`
	UsedQuantity  *float64 `json:"used_quantity"`
}

func (p MaterialTrackingPatch) apply(dst *models.MaterialTracking) []string {
	var cols []string
	cols = set(cols, "description", &dst.Description, p.Description)
	cols = set(cols, "category", &dst.Category, p.Category)
	cols = set(cols, "total_quantity", &dst.TotalQuantity, p.TotalQuantity)
	cols = set(cols, "used_quantity", &dst.UsedQuantity, p.UsedQuantity)
	if len(cols) > 0 {
		dst.Recompute()
		cols = append(cols, "remaining_quantity")
	}
	return cols
}

func validateTracking(t *models.MaterialTracking) error {
	return check(t, func(v *ValidationError) {
		switch t.Category {
		case "", models.CategoryWithdrawn, models.CategoryBranchWithdrawn, models.CategoryReturned:
		default:
			v.add("category", "must be one of: withdrawn, branch-withdrawn, returned")
		}
		if t.UsedQuantity < 0 || math.IsNaN(t.UsedQuantity) {
			v.add("used_quantity", "must be at least 0")
		}
	})
}

func (s *MaterialTrackingStore) List(ctx context.Context) ([]models.MaterialTracking, error) {
	if items, ok := s.cache.snapshot(); ok {
		return items, nil
	}
	return s.Refresh(ctx)
}

func (s *MaterialTrackingStore) Refresh(ctx context.Context) ([]models.MaterialTracking, error) {
	items, err := listAll[models.MaterialTracking](ctx, s.db, trackingCollection)
	if err != nil {
		return nil, err
	}
	s.cache.replace(items)
	return items, nil
}

// ListByProject reads a project's tracking rows straight from the database,
// oldest first. Reconciliation uses it so it never plans against a stale
// cache.
func (s *MaterialTrackingStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.MaterialTracking, error) {
	var rows []models.MaterialTracking
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, persistErr("list", trackingCollection, err)
	}
	return rows, nil
}

func (s *MaterialTrackingStore) Get(ctx context.Context, id uuid.UUID) (*models.MaterialTracking, error) {
	return getByID[models.MaterialTracking](ctx, s.db, trackingCollection, id)
}

func (s *MaterialTrackingStore) Create(ctx context.Context, t *models.MaterialTracking) error {
	if err := validateTracking(t); err != nil {
		return err
	}
	if s.projects != nil {
		ok, err := s.projects.Exists(ctx, t.ProjectID)
		if err != nil {
			return err
		}
		if !ok {
			return invalid("project_id", "does not match a project")
		}
	}
	t.Recompute()
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return persistErr("create", trackingCollection, err)
	}
	s.cache.prepend(*t)
	return nil
}

func (s *MaterialTrackingStore) Update(ctx context.Context, id uuid.UUID, patch MaterialTrackingPatch) (*models.MaterialTracking, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.apply(t)
	if err := validateTracking(t); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return t, nil
	}
	if err := updateColumns(ctx, s.db, trackingCollection, t, append(cols, "updated_at")); err != nil {
		return nil, err
	}
	s.cache.swap(*t)
	return t, nil
}

// Save persists the consumption fields of row (used, remaining and the
// usage ledger). Remaining is recomputed from row's total and used.
func (s *MaterialTrackingStore) Save(ctx context.Context, row models.MaterialTracking) (*models.MaterialTracking, error) {
	row.Recompute()
	cols := []string{"used_quantity", "remaining_quantity", "date_usage", "updated_at"}
	if err := updateColumns(ctx, s.db, trackingCollection, &row, cols); err != nil {
		return nil, err
	}
	s.cache.swap(row)
	return &row, nil
}

// SetDailyUsage records amount as the withdrawal for one day, replacing any
// earlier value for that day, and re-derives used and remaining. A zero
// amount clears the day.
func (s *MaterialTrackingStore) SetDailyUsage(ctx context.Context, id uuid.UUID, day models.Date, amount float64) (*models.MaterialTracking, error) {
	if day.IsZero() {
		return nil, invalid("date", "is required")
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, invalid("amount", "must be at least 0")
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger := t.Ledger()
	if amount == 0 {
		delete(ledger, day.String())
	} else {
		ledger[day.String()] = amount
	}
	t.SetLedger(ledger)
	t.UsedQuantity = ledger.Sum()
	return s.Save(ctx, *t)
}

func (s *MaterialTrackingStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := deleteByID[models.MaterialTracking](ctx, s.db, trackingCollection, id); err != nil {
		return err
	}
	s.cache.remove(id)
	return nil
}

// seed creates a tracking row for every item description the project does
// not track yet. Failures are logged; the request itself is already saved.
func (s *MaterialTrackingStore) seed(ctx context.Context, req models.MaterialRequest) {
	rows, err := s.ListByProject(ctx, req.ProjectID)
	if err != nil {
		s.log.Warn("seed material tracking", "request_code", req.RequestCode, "error", err)
		return
	}
	tracked := make(map[string]bool, len(rows))
	for _, r := range rows {
		tracked[r.Description] = true
	}
	for _, it := range req.Items {
		if tracked[it.ItemName] {
			continue
		}
		tracked[it.ItemName] = true
		row := &models.MaterialTracking{
			ProjectID:     req.ProjectID,
			Description:   it.ItemName,
			Category:      models.CategoryWithdrawn,
			TotalQuantity: it.Quantity,
		}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			s.log.Warn("seed material tracking", "request_code", req.RequestCode, "item", it.ItemName, "error", err)
			continue
		}
		s.cache.prepend(*row)
	}
}
