package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
)

type MaterialTrackingHandler struct {
	Deps
}

func NewMaterialTrackingHandler(d Deps) *MaterialTrackingHandler {
	return &MaterialTrackingHandler{Deps: d}
}

// ListMaterialTracking supports project_id, category and search (on
// description) filters.
func (h *MaterialTrackingHandler) ListMaterialTracking(w http.ResponseWriter, r *http.Request) {
	all, err := load[models.MaterialTracking](r, h.Stores.MaterialTracking)
	if err != nil {
		h.fail(w, r, "Could not load material tracking", err)
		return
	}
	projectID, err := queryID(r, "project_id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	q := r.URL.Query()
	category := q.Get("category")
	search := strings.ToLower(q.Get("search"))

	out := make([]models.MaterialTracking, 0, len(all))
	for _, t := range all {
		if projectID != uuid.Nil && t.ProjectID != projectID {
			continue
		}
		if category != "" && category != "all" && t.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"material_tracking": out,
		"total":             len(all),
	})
}

func (h *MaterialTrackingHandler) CreateMaterialTracking(w http.ResponseWriter, r *http.Request) {
	var t models.MaterialTracking
	if err := decode(r, &t); err != nil {
		badRequest(w, err.Error())
		return
	}
	t.ID = uuid.Nil
	if err := h.Stores.MaterialTracking.Create(r.Context(), &t); err != nil {
		h.fail(w, r, "Could not add material", err)
		return
	}
	h.Notifier.Success("Material added", t.Description)
	writeJSON(w, http.StatusCreated, t)
}

func (h *MaterialTrackingHandler) UpdateMaterialTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch store.MaterialTrackingPatch
	if err := decode(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := h.Stores.MaterialTracking.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Could not update material", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *MaterialTrackingHandler) DeleteMaterialTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.MaterialTracking.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Could not delete material", err)
		return
	}
	h.Notifier.Success("Material deleted", "")
	w.WriteHeader(http.StatusNoContent)
}

type dailyUsage struct {
	Amount float64 `json:"amount"`
}

// SetDailyUsage replaces the withdrawal recorded for one day of a tracking
// row. Body: {"amount": 12.5}; zero clears the day.
func (h *MaterialTrackingHandler) SetDailyUsage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	day, err := models.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	var body dailyUsage
	if err := decode(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	t, err := h.Stores.MaterialTracking.SetDailyUsage(r.Context(), id, day, body.Amount)
	if err != nil {
		h.fail(w, r, "Could not record usage", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
