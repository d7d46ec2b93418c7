package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
)

type TeamMemberHandler struct {
	Deps
}

func NewTeamMemberHandler(d Deps) *TeamMemberHandler {
	return &TeamMemberHandler{Deps: d}
}

type teamListResponse struct {
	TeamMembers  []models.TeamMember         `json:"team_members"`
	Roles        []string                    `json:"roles"`
	StatusCounts map[models.MemberStatus]int `json:"status_counts"`
	Total        int                         `json:"total"`
}

func (h *TeamMemberHandler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	s := h.Stores.TeamMembers
	all, err := load[models.TeamMember](r, s)
	if err != nil {
		h.fail(w, r, "Could not load team members", err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, teamListResponse{
		TeamMembers:  s.Filter(all, q.Get("search"), q.Get("role")),
		Roles:        s.Roles(all),
		StatusCounts: s.CountByStatus(all),
		Total:        len(all),
	})
}

func (h *TeamMemberHandler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var m models.TeamMember
	if err := decode(r, &m); err != nil {
		badRequest(w, err.Error())
		return
	}
	m.ID = uuid.Nil
	if err := h.Stores.TeamMembers.Create(r.Context(), &m); err != nil {
		h.fail(w, r, "Could not add team member", err)
		return
	}
	h.Notifier.Success("Team member added", m.Name)
	writeJSON(w, http.StatusCreated, m)
}

func (h *TeamMemberHandler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var patch store.TeamMemberPatch
	if err := decode(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	m, err := h.Stores.TeamMembers.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, "Could not update team member", err)
		return
	}
	h.Notifier.Success("Team member updated", m.Name)
	writeJSON(w, http.StatusOK, m)
}

func (h *TeamMemberHandler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.Stores.TeamMembers.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "Could not remove team member", err)
		return
	}
	h.Notifier.Success("Team member removed", "")
	w.WriteHeader(http.StatusNoContent)
}
