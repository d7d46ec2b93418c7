package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
)

const projectsCollection = "projects"

type ProjectStore struct {
	db      *gorm.DB
	cache   *cache[models.Project]
	members *TeamMemberStore
	log     *slog.Logger
}

func NewProjectStore(db *gorm.DB, members *TeamMemberStore, log *slog.Logger) *ProjectStore {
	return &ProjectStore{
		db:      db,
		cache:   newCache(func(p models.Project) uuid.UUID { return p.ID }),
		members: members,
		log:     log,
	}
}

// ProjectPatch holds the fields of an update. Nil fields are left alone.
type ProjectPatch struct {
	Name            *string               `json:"name"`
	Location        *string               `json:"location"`
	Description     *string               `json:"description"`
	Status          *models.ProjectStatus `json:"status"`
	Progress        *float64              `json:"progress"`
	StartDate       *models.Date          `json:"start_date"`
	EndDate         *models.Date          `json:"end_date"`
	TeamName        *string               `json:"team_name"`
	Budget          *float64              `json:"budget"`
	AssignedMembers *models.StringList    `json:"assigned_members"`
	Latitude        *float64              `json:"latitude"`
	Longitude       *float64              `json:"longitude"`
}

func (p ProjectPatch) apply(dst *models.Project) []string {
	var cols []string
	cols = set(cols, "name", &dst.Name, p.Name)
	cols = set(cols, "location", &dst.Location, p.Location)
	cols = set(cols, "description", &dst.Description, p.Description)
	cols = set(cols, "status", &dst.Status, p.Status)
	cols = set(cols, "progress", &dst.Progress, p.Progress)
	cols = set(cols, "start_date", &dst.StartDate, p.StartDate)
	cols = set(cols, "end_date", &dst.EndDate, p.EndDate)
	cols = set(cols, "team_name", &dst.TeamName, p.TeamName)
	cols = set(cols, "budget", &dst.Budget, p.Budget)
	cols = set(cols, "assigned_members", &dst.AssignedMembers, p.AssignedMembers)
	if p.Latitude != nil {
		dst.Latitude = p.Latitude
		cols = append(cols, "latitude")
	}
	if p.Longitude != nil {
		dst.Longitude = p.Longitude
		cols = append(cols, "longitude")
	}
	return cols
}

func validateProject(p *models.Project) error {
	return check(p, func(v *ValidationError) {
		if p.StartDate.IsZero() {
			v.add("start_date", "is required")
		}
		if p.EndDate.IsZero() {
			v.add("end_date", "is required")
		}
		if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Time().Before(p.StartDate.Time()) {
			v.add("end_date", "must not be before start_date")
		}
		for _, id := range p.AssignedMembers {
			if _, err := uuid.Parse(id); err != nil {
				v.add("assigned_members", "must contain team member ids")
				break
			}
		}
	})
}

// List returns the cached projects, newest first, reading them on first use.
func (s *ProjectStore) List(ctx context.Context) ([]models.Project, error) {
	if items, ok := s.cache.snapshot(); ok {
		return items, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-reads every project and replaces the cache.
func (s *ProjectStore) Refresh(ctx context.Context) ([]models.Project, error) {
	items, err := listAll[models.Project](ctx, s.db, projectsCollection)
	if err != nil {
		return nil, err
	}
	s.cache.replace(items)
	return items, nil
}

func (s *ProjectStore) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return getByID[models.Project](ctx, s.db, projectsCollection, id)
}

func (s *ProjectStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := exists[models.Project](ctx, s.db, id)
	if err != nil {
		return false, persistErr("get", projectsCollection, err)
	}
	return ok, nil
}

// Create inserts p and then labels every assigned member with the project
// name. Labelling failures are logged and do not fail the create.
func (s *ProjectStore) Create(ctx context.Context, p *models.Project) error {
	if p.Status == "" {
		p.Status = models.ProjectPending
	}
	if err := validateProject(p); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return persistErr("create", projectsCollection, err)
	}
	s.cache.prepend(*p)
	s.labelMembers(ctx, *p)
	return nil
}

func (s *ProjectStore) Update(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := p.AssignedMembers
	cols := patch.apply(p)
	if err := validateProject(p); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return p, nil
	}
	if err := updateColumns(ctx, s.db, projectsCollection, p, append(cols, "updated_at")); err != nil {
		return nil, err
	}
	s.cache.swap(*p)

	if patch.AssignedMembers != nil || patch.Name != nil {
		added := *p
		if patch.Name == nil {
			added.AssignedMembers = newIDs(before, p.AssignedMembers)
		}
		s.labelMembers(ctx, added)
	}
	return p, nil
}

// Delete removes a project and its tracking rows. A project that material
// requests or progress updates still point at is left alone and ErrConflict
// is returned.
func (s *ProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range []interface{}{&models.MaterialRequest{}, &models.ProgressUpdate{}} {
			var n int64
			if err := tx.Model(ref).Where("project_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrConflict
			}
		}
		res := tx.Delete(&models.Project{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return persistErr("delete", projectsCollection, err)
	}
	s.cache.remove(id)
	return nil
}

func (s *ProjectStore) labelMembers(ctx context.Context, p models.Project) {
	if s.members == nil || len(p.AssignedMembers) == 0 {
		return
	}
	name := p.Name
	today := models.NewDate(time.Now())
	for _, raw := range p.AssignedMembers {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		_, err = s.members.Update(ctx, id, TeamMemberPatch{Projects: &name, LastUpdate: &today})
		if err != nil {
			s.log.Warn("label team member with project", "project_id", p.ID, "member_id", id, "error", err)
		}
	}
}

func newIDs(before, after models.StringList) models.StringList {
	var out models.StringList
	for _, id := range after {
		if !before.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
