package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
)

const progressCollection = "progress_updates"

type ProgressUpdateStore struct {
	db       *gorm.DB
	cache    *cache[models.ProgressUpdate]
	projects *ProjectStore
	log      *slog.Logger
}

func NewProgressUpdateStore(db *gorm.DB, projects *ProjectStore, log *slog.Logger) *ProgressUpdateStore {
	return &ProgressUpdateStore{
		db:       db,
		cache:    newCache(func(u models.ProgressUpdate) uuid.UUID { return u.ID }),
		projects: projects,
		log:      log,
	}
}

type ProgressUpdatePatch struct {
	UpdateDate         *models.Date       `json:"update_date"`
	ProgressPercentage *int               `json:"progress_percentage"`
	Description        *string            `json:"description"`
	PhotosURL          *models.StringList `json:"photos_url"`
	UpdatedBy          *string            `json:"updated_by"`
}

func (p ProgressUpdatePatch) apply(dst *models.ProgressUpdate) []string {
	var cols []string
	cols = set(cols, "update_date", &dst.UpdateDate, p.UpdateDate)
	cols = set(cols, "progress_percentage", &dst.ProgressPercentage, p.ProgressPercentage)
	cols = set(cols, "description", &dst.Description, p.Description)
	cols = set(cols, "photos_url", &dst.PhotosURL, p.PhotosURL)
	cols = set(cols, "updated_by", &dst.UpdatedBy, p.UpdatedBy)
	return cols
}

func (s *ProgressUpdateStore) List(ctx context.Context) ([]models.ProgressUpdate, error) {
	if items, ok := s.cache.snapshot(); ok {
		return items, nil
	}
	return s.Refresh(ctx)
}

func (s *ProgressUpdateStore) Refresh(ctx context.Context) ([]models.ProgressUpdate, error) {
	items, err := listAll[models.ProgressUpdate](ctx, s.db, progressCollection)
	if err != nil {
		return nil, err
	}
	s.cache.replace(items)
	return items, nil
}

func (s *ProgressUpdateStore) Get(ctx context.Context, id uuid.UUID) (*models.ProgressUpdate, error) {
	return getByID[models.ProgressUpdate](ctx, s.db, progressCollection, id)
}

func (s *ProgressUpdateStore) Create(ctx context.Context, u *models.ProgressUpdate) error {
	if err := check(u, nil); err != nil {
		return err
	}
	ok, err := s.projects.Exists(ctx, u.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("project_id", "does not match a project")
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return persistErr("create", progressCollection, err)
	}
	s.cache.prepend(*u)
	return nil
}

func (s *ProgressUpdateStore) Update(ctx context.Context, id uuid.UUID, patch ProgressUpdatePatch) (*models.ProgressUpdate, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.apply(u)
	if err := check(u, nil); err != nil {
		return nil, err
	}
	if err := updateColumns(ctx, s.db, progressCollection, u, cols); err != nil {
		return nil, err
	}
	s.cache.swap(*u)
	return u, nil
}

func (s *ProgressUpdateStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := deleteByID[models.ProgressUpdate](ctx, s.db, progressCollection, id); err != nil {
		return err
	}
	s.cache.remove(id)
	return nil
}
