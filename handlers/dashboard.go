package handlers

import (
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
	"p9e.in/sitebook/pkg/summary"
)

type DashboardHandler struct {
	Deps
}

func NewDashboardHandler(d Deps) *DashboardHandler {
	return &DashboardHandler{Deps: d}
}

// Notifications returns recent notices, newest first. ?limit=N caps them.
func (h *DashboardHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notices := h.Feed.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notices})
}

type dashboardStats struct {
	Projects         map[models.ProjectStatus]int `json:"projects"`
	TeamMembers      map[models.MemberStatus]int  `json:"team_members"`
	MaterialRequests map[models.RequestStatus]int `json:"material_requests"`
	Materials        map[summary.Status]int       `json:"materials"`
	Progress         store.ProgressStats          `json:"progress"`
}

// Stats aggregates the counts shown on the dashboard home page.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var (
		projects []models.Project
		members  []models.TeamMember
		requests []models.MaterialRequest
		tracking []models.MaterialTracking
		updates  []models.ProgressUpdate
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { projects, err = h.Stores.Projects.List(ctx); return })
	g.Go(func() (err error) { members, err = h.Stores.TeamMembers.List(ctx); return })
	g.Go(func() (err error) { requests, err = h.Stores.MaterialRequests.List(ctx); return })
	g.Go(func() (err error) { tracking, err = h.Stores.MaterialTracking.List(ctx); return })
	g.Go(func() (err error) { updates, err = h.Stores.ProgressUpdates.List(ctx); return })
	if err := g.Wait(); err != nil {
		h.fail(w, r, "Could not load dashboard", err)
		return
	}

	materials := summary.Build(summary.Input{Tracking: tracking, Requests: requests, Anchor: h.now()})
	writeJSON(w, http.StatusOK, dashboardStats{
		Projects:         h.Stores.Projects.CountByStatus(projects),
		TeamMembers:      h.Stores.TeamMembers.CountByStatus(members),
		MaterialRequests: h.Stores.MaterialRequests.CountByStatus(requests),
		Materials:        materials.Counts(),
		Progress:         h.Stores.ProgressUpdates.Stats(updates, h.now()),
	})
}
