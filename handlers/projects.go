package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
	"p9e.in/sitebook/pkg/summary"
)

// ProjectHandler serves projects, their overview page and the site map.
type ProjectHandler struct {
	Deps
}

func NewProjectHandler(d Deps) *ProjectHandler {
	return &ProjectHandler{Deps: d}
}

type projectListResponse struct {
	Projects     []models.Project             `json:"projects"`
	StatusCounts map[models.ProjectStatus]int `json:"status_counts"`
	Total        int                          `json:"total"`
}

// ListProjects godoc
// @Summary  List projects
// @Tags     projects
// @Param    search  query string false "name or location contains"
// @Param    status  query string false "pending, active, completed or all"
// @Param    refresh query bool   false "re-read from the database"
// @Success  200 {object} projectListResponse
// @Router   /projects [get]
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	s := h.Stores.Projects
	all, err := load[models.Project](r, s)
	if err != nil {
		h.fail(w, r, "Could not load projects", err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, projectListResponse{
		Projects:     s.Filter(all, q.Get("search"), q.Get("status")),
		StatusCounts: s.CountByStatus(all),
		Total:        len(all),
	})
}

// CreateProject godoc
// @Summary  Create a project
// @Tags     projects
// @Accept   json
// @Param    project body models.Project true "project"
// @Success  201 {object} models.Project
// @Failure  400 {object} errorResponse
// @Router   /projects [post]
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := decode(r, &p); err != nil {
		badRequest(w, err.Error())
		return
	}
	p.ID = uuid.Nil
	if err := h.Stores.Projects.Create(r.Context(), &p); err != nil {
		h.fail(w, r, "Could not create project", err)
		return
	}
	h.Log.Info("created project", "project_id", p.ID, "name", p.Name)
	h.Notifier.Success("Project created", p.Name)
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.Stores.Projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Could not load project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch store.ProjectPatch
	if err := decode(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.Stores.Projects.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Could not update project", err)
		return
	}
	h.Notifier.Success("Project updated", p.Name)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.Projects.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Could not delete project", err)
		return
	}
	h.Log.Info("deleted project", "project_id", id)
	h.Notifier.Success("Project deleted", "")
	w.WriteHeader(http.StatusNoContent)
}

type projectOverview struct {
	Project          *models.Project          `json:"project"`
	MaterialRequests []models.MaterialRequest `json:"material_requests"`
	ProgressUpdates  []models.ProgressUpdate  `json:"progress_updates"`
	Materials        summary.Summary          `json:"materials"`
}

// ProjectOverview returns a project with its requests, progress updates and
// material summary for the current month.
func (h *ProjectHandler) ProjectOverview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	var (
		out      projectOverview
		requests []models.MaterialRequest
		updates  []models.ProgressUpdate
		tracking []models.MaterialTracking
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		p, err := h.Stores.Projects.Get(ctx, id)
		out.Project = p
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = h.Stores.MaterialRequests.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		updates, err = h.Stores.ProgressUpdates.List(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		tracking, err = h.Stores.MaterialTracking.ListByProject(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "Could not load project overview", err)
		return
	}

	out.MaterialRequests = []models.MaterialRequest{}
	for _, req := range requests {
		if req.ProjectID == id {
			out.MaterialRequests = append(out.MaterialRequests, req)
		}
	}
	out.ProgressUpdates = h.Stores.ProgressUpdates.Filter(updates, nil, "", id)
	out.Materials = summary.Build(summary.Input{
		Tracking:  tracking,
		Requests:  out.MaterialRequests,
		ProjectID: id,
		Anchor:    h.now(),
	})
	writeJSON(w, http.StatusOK, out)
}

// ProjectMap returns projects with coordinates as a GeoJSON
// FeatureCollection of points.
func (h *ProjectHandler) ProjectMap(w http.ResponseWriter, r *http.Request) {
	all, err := load[models.Project](r, h.Stores.Projects)
	if err != nil {
		h.fail(w, r, "Could not load projects", err)
		return
	}
	fc := geojson.NewFeatureCollection()
	for _, p := range all {
		if !p.HasLocation() {
			continue
		}
		f := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		f.ID = p.ID.String()
		f.Properties["name"] = p.Name
		f.Properties["location"] = p.Location
		f.Properties["status"] = string(p.Status)
		f.Properties["progress"] = p.Progress
		fc.Append(f)
	}
	w.Header().Set("Content-Type", "application/geo+json")
	b, err := fc.MarshalJSON()
	if err != nil {
		h.fail(w, r, "Could not render project map", err)
		return
	}
	w.Write(b)
}
