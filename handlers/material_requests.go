package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"p9e.in/sitebook/middleware"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/reconcile"
	"p9e.in/sitebook/pkg/store"
)

type MaterialRequestHandler struct {
	Deps
}

func NewMaterialRequestHandler(d Deps) *MaterialRequestHandler {
	return &MaterialRequestHandler{Deps: d}
}

type requestListResponse struct {
	MaterialRequests []models.MaterialRequest     `json:"material_requests"`
	StatusCounts     map[models.RequestStatus]int `json:"status_counts"`
	Total            int                          `json:"total"`
}

// ListMaterialRequests godoc
// @Summary  List material requests with their items
// @Tags     material-requests
// @Param    status     query string false "pending, approved, rejected, delivered or all"
// @Param    project_id query string false "project id"
// @Param    refresh    query bool   false "re-read from the database"
// @Success  200 {object} requestListResponse
// @Router   /material-requests [get]
func (h *MaterialRequestHandler) ListMaterialRequests(w http.ResponseWriter, r *http.Request) {
	s := h.Stores.MaterialRequests
	all, err := load[models.MaterialRequest](r, s)
	if err != nil {
		h.fail(w, r, "Could not load material requests", err)
		return
	}
	projectID, err := queryID(r, "project_id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	status := r.URL.Query().Get("status")
	out := make([]models.MaterialRequest, 0, len(all))
	for _, req := range all {
		if !(status == "" || status == "all" || string(req.Status) == status) {
			continue
		}
		if projectID != uuid.Nil && req.ProjectID != projectID {
			continue
		}
		out = append(out, req)
	}
	writeJSON(w, http.StatusOK, requestListResponse{
		MaterialRequests: out,
		StatusCounts:     s.CountByStatus(all),
		Total:            len(all),
	})
}

// CreateMaterialRequest godoc
// @Summary  Create a material request with its items
// @Tags     material-requests
// @Accept   json
// @Param    request body models.MaterialRequest true "request with material_items"
// @Success  201 {object} models.MaterialRequest
// @Failure  400 {object} errorResponse
// @Router   /material-requests [post]
func (h *MaterialRequestHandler) CreateMaterialRequest(w http.ResponseWriter, r *http.Request) {
	var req models.MaterialRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.MaterialRequests.Create(r.Context(), &req); err != nil {
		h.fail(w, r, "Could not create material request", err)
		return
	}
	h.Log.Info("created material request", "request_code", req.RequestCode, "project_id", req.ProjectID, "items", len(req.Items))
	h.Notifier.Success("Material request created", req.RequestCode)
	writeJSON(w, http.StatusCreated, req)
}

func (h *MaterialRequestHandler) GetMaterialRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	req, err := h.Stores.MaterialRequests.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Could not load material request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *MaterialRequestHandler) UpdateMaterialRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch store.MaterialRequestPatch
	if err := decode(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	req, err := h.Stores.MaterialRequests.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Could not update material request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *MaterialRequestHandler) DeleteMaterialRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.MaterialRequests.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Could not delete material request", err)
		return
	}
	h.Notifier.Success("Material request deleted", "")
	w.WriteHeader(http.StatusNoContent)
}

type statusChange struct {
	Status models.RequestStatus `json:"status"`
	// ApprovedBy is used when the caller carries no token.
	ApprovedBy string `json:"approved_by"`
}

type statusChangeResponse struct {
	MaterialRequest *models.MaterialRequest `json:"material_request"`
	Reconciliation  *reconcile.Result       `json:"reconciliation,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// UpdateMaterialRequestStatus godoc
// @Summary  Change the status of a material request
// @Description Moving a request into approved consumes its items from the
// @Description project's material tracking rows. When some rows cannot be
// @Description written the response is 500 and lists every row outcome;
// @Description rows already written stay written.
// @Tags     material-requests
// @Accept   json
// @Param    id   path string       true "request id"
// @Param    body body statusChange true "new status"
// @Success  200 {object} statusChangeResponse
// @Failure  500 {object} statusChangeResponse
// @Router   /material-requests/{id}/status [put]
func (h *MaterialRequestHandler) UpdateMaterialRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var body statusChange
	if err := decode(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	actor := middleware.Actor(r)
	if actor == "" {
		actor = body.ApprovedBy
	}

	req, prev, err := h.Stores.MaterialRequests.UpdateStatus(r.Context(), id, body.Status, actor)
	if err != nil {
		h.fail(w, r, "Could not update request status", err)
		return
	}
	h.Log.Info("material request status changed", "request_code", req.RequestCode, "from", prev, "to", req.Status, "actor", actor)

	resp := statusChangeResponse{MaterialRequest: req}
	if reconcile.Triggers(prev, req.Status) {
		res := h.Reconciler.Reconcile(r.Context(), *req)
		resp.Reconciliation = &res
		if err := res.Err(); reconcile.IsPartialFailure(err) {
			resp.Error = err.Error()
			h.Notifier.Error("Stock update incomplete", err.Error())
			writeJSON(w, http.StatusInternalServerError, resp)
			return
		}
	}
	h.Notifier.Success("Request status updated", req.RequestCode+": "+string(req.Status))
	writeJSON(w, http.StatusOK, resp)
}
