package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
)

type ProgressUpdateHandler struct {
	Deps
}

func NewProgressUpdateHandler(d Deps) *ProgressUpdateHandler {
	return &ProgressUpdateHandler{Deps: d}
}

type progressListResponse struct {
	ProgressUpdates []models.ProgressUpdate `json:"progress_updates"`
	Stats           store.ProgressStats     `json:"stats"`
}

func (h *ProgressUpdateHandler) ListProgressUpdates(w http.ResponseWriter, r *http.Request) {
	s := h.Stores.ProgressUpdates
	all, err := load[models.ProgressUpdate](r, s)
	if err != nil {
		h.fail(w, r, "Could not load progress updates", err)
		return
	}
	projects, err := h.Stores.Projects.List(r.Context())
	if err != nil {
		h.fail(w, r, "Could not load projects", err)
		return
	}
	projectID, err := queryID(r, "project_id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	names := make(map[uuid.UUID]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	writeJSON(w, http.StatusOK, progressListResponse{
		ProgressUpdates: s.Filter(all, names, r.URL.Query().Get("search"), projectID),
		Stats:           s.Stats(all, h.now()),
	})
}

func (h *ProgressUpdateHandler) CreateProgressUpdate(w http.ResponseWriter, r *http.Request) {
	var u models.ProgressUpdate
	if err := decode(r, &u); err != nil {
		badRequest(w, err.Error())
		return
	}
	u.ID = uuid.Nil
	if u.UpdateDate.IsZero() {
		u.UpdateDate = models.NewDate(h.now())
	}
	if err := h.Stores.ProgressUpdates.Create(r.Context(), &u); err != nil {
		h.fail(w, r, "Could not save progress update", err)
		return
	}
	h.Notifier.Success("Progress update saved", "")
	writeJSON(w, http.StatusCreated, u)
}

func (h *ProgressUpdateHandler) UpdateProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch store.ProgressUpdatePatch
	if err := decode(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	u, err := h.Stores.ProgressUpdates.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Could not update progress update", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *ProgressUpdateHandler) DeleteProgressUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.ProgressUpdates.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Could not delete progress update", err)
		return
	}
	h.Notifier.Success("Progress update deleted", "")
	w.WriteHeader(http.StatusNoContent)
}
