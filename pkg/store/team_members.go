package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"p9e.in/sitebook/models"
)

const teamMembersCollection = "team_members"

type TeamMemberStore struct {
	db    *gorm.DB
	cache *cache[models.TeamMember]
	log   *slog.Logger
}

func NewTeamMemberStore(db *gorm.DB, log *slog.Logger) *TeamMemberStore {
	return &TeamMemberStore{
		db:    db,
		cache: newCache(func(m models.TeamMember) uuid.UUID { return m.ID }),
		log:   log,
	}
}

type TeamMemberPatch struct {
	Name       *string              `json:"name"`
	Role       *string              `json:"role"`
	Specialty  *string              `json:"specialty"`
	Phone      *string              `json:"phone"`
	Email      *string              `json:"email"`
	Projects   *string              `json:"projects"`
	Status     *models.MemberStatus `json:"status"`
	Experience *string              `json:"experience"`
	JoinDate   *models.Date         `json:"join_date"`
	AvatarURL  *string              `json:"avatar_url"`
	LastUpdate *models.Date         `json:"last_update"`
}

func (p TeamMemberPatch) apply(dst *models.TeamMember) []string {
	var cols []string
	cols = set(cols, "name", &dst.Name, p.Name)
	cols = set(cols, "role", &dst.Role, p.Role)
	cols = set(cols, "specialty", &dst.Specialty, p.Specialty)
	cols = set(cols, "phone", &dst.Phone, p.Phone)
	cols = set(cols, "email", &dst.Email, p.Email)
	cols = set(cols, "projects", &dst.Projects, p.Projects)
	cols = set(cols, "status", &dst.Status, p.Status)
	cols = set(cols, "experience", &dst.Experience, p.Experience)
	cols = set(cols, "join_date", &dst.JoinDate, p.JoinDate)
	cols = set(cols, "avatar_url", &dst.AvatarURL, p.AvatarURL)
	cols = set(cols, "last_update", &dst.LastUpdate, p.LastUpdate)
	return cols
}

func (s *TeamMemberStore) List(ctx context.Context) ([]models.TeamMember, error) {
	if items, ok := s.cache.snapshot(); ok {
		return items, nil
	}
	return s.Refresh(ctx)
}

func (s *TeamMemberStore) Refresh(ctx context.Context) ([]models.TeamMember, error) {
	items, err := listAll[models.TeamMember](ctx, s.db, teamMembersCollection)
	if err != nil {
		return nil, err
	}
	s.cache.replace(items)
	return items, nil
}

func (s *TeamMemberStore) Get(ctx context.Context, id uuid.UUID) (*models.TeamMember, error) {
	return getByID[models.TeamMember](ctx, s.db, teamMembersCollection, id)
}

func (s *TeamMemberStore) Create(ctx context.Context, m *models.TeamMember) error {
	if err := check(m, nil); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return persistErr("create", teamMembersCollection, err)
	}
	s.cache.prepend(*m)
	return nil
}

func (s *TeamMemberStore) Update(ctx context.Context, id uuid.UUID, patch TeamMemberPatch) (*models.TeamMember, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.apply(m)
	if err := check(m, nil); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return m, nil
	}
	if err := updateColumns(ctx, s.db, teamMembersCollection, m, append(cols, "updated_at")); err != nil {
		return nil, err
	}
	s.cache.swap(*m)
	return m, nil
}

func (s *TeamMemberStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := deleteByID[models.TeamMember](ctx, s.db, teamMembersCollection, id); err != nil {
		return err
	}
	s.cache.remove(id)
	return nil
}
