// Package store is the data access layer: one store per collection, each
// keeping an in-memory copy of its records in step with its own writes.
package store

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Stores struct {
	Projects         *ProjectStore
	TeamMembers      *TeamMemberStore
	MaterialRequests *MaterialRequestStore
	MaterialTracking *MaterialTrackingStore
	ProgressUpdates  *ProgressUpdateStore
}

func New(db *gorm.DB, codes CodeGenerator, log *slog.Logger) *Stores {
	if log == nil {
		log = slog.Default()
	}
	members := NewTeamMemberStore(db, log)
	projects := NewProjectStore(db, members, log)
	tracking := NewMaterialTrackingStore(db, projects, log)
	return &Stores{
		Projects:         projects,
		TeamMembers:      members,
		MaterialRequests: NewMaterialRequestStore(db, codes, projects, tracking, log),
		MaterialTracking: tracking,
		ProgressUpdates:  NewProgressUpdateStore(db, projects, log),
	}
}

// RefreshAll reloads every collection in parallel.
func (s *Stores) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.Projects.Refresh(ctx); return err })
	g.Go(func() error { _, err := s.TeamMembers.Refresh(ctx); return err })
	g.Go(func() error { _, err := s.MaterialRequests.Refresh(ctx); return err })
	g.Go(func() error { _, err := s.MaterialTracking.Refresh(ctx); return err })
	g.Go(func() error { _, err := s.ProgressUpdates.Refresh(ctx); return err })
	return g.Wait()
}
