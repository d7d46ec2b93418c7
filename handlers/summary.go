package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/store"
	"p9e.in/sitebook/pkg/summary"
)

type SummaryHandler struct {
	Deps
}

func NewSummaryHandler(d Deps) *SummaryHandler {
	return &SummaryHandler{Deps: d}
}

type summaryResponse struct {
	summary.Summary
	StatusCounts map[summary.Status]int `json:"status_counts"`
}

// build reads the query (project_id, month=YYYY-MM or date=YYYY-MM-DD,
// search, status) and aggregates the cached collections.
func (h *SummaryHandler) build(r *http.Request) (summary.Summary, summary.Summary, error) {
	projectID, err := queryID(r, "project_id")
	if err != nil {
		return summary.Summary{}, summary.Summary{}, &store.ValidationError{Fields: map[string]string{"project_id": "must be a project id"}}
	}
	anchor, err := h.anchor(r)
	if err != nil {
		return summary.Summary{}, summary.Summary{}, &store.ValidationError{Fields: map[string]string{"month": err.Error()}}
	}

	var (
		tracking []models.MaterialTracking
		requests []models.MaterialRequest
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		if wantRefresh(r) {
			tracking, err = h.Stores.MaterialTracking.Refresh(ctx)
		} else {
			tracking, err = h.Stores.MaterialTracking.List(ctx)
		}
		return err
	})
	g.Go(func() error {
		if wantRefresh(r) {
			if _, err := h.Stores.MaterialRequests.Refresh(ctx); err != nil {
				return err
			}
		}
		var err error
		requests, err = h.Stores.MaterialRequests.ListApproved(ctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return summary.Summary{}, summary.Summary{}, err
	}

	all := summary.Build(summary.Input{Tracking: tracking, Requests: requests, ProjectID: projectID, Anchor: anchor})
	q := r.URL.Query()
	return all, all.Filter(q.Get("search"), q.Get("status")), nil
}

func (h *SummaryHandler) anchor(r *http.Request) (time.Time, error) {
	q := r.URL.Query()
	if m := q.Get("month"); m != "" {
		t, err := time.Parse("2006-01", m)
		if err != nil {
			return time.Time{}, fmt.Errorf("must be YYYY-MM, got %q", m)
		}
		return t, nil
	}
	if d := q.Get("date"); d != "" {
		t, err := models.ParseDate(d)
		if err != nil {
			return time.Time{}, fmt.Errorf("must be YYYY-MM-DD, got %q", d)
		}
		return t.Time(), nil
	}
	return h.now(), nil
}

// MaterialSummary godoc
// @Summary  Material withdrawal matrix
// @Tags     material-summary
// @Param    project_id query string false "limit to one project"
// @Param    month      query string false "YYYY-MM, defaults to the current month"
// @Param    search     query string false "description contains"
// @Param    status     query string false "sufficient, low, critical, out, unknown or all"
// @Success  200 {object} summaryResponse
// @Router   /material-summary [get]
func (h *SummaryHandler) MaterialSummary(w http.ResponseWriter, r *http.Request) {
	all, filtered, err := h.build(r)
	if err != nil {
		h.fail(w, r, "Could not load material summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: filtered, StatusCounts: all.Counts()})
}

// ExportMaterialSummary streams the filtered summary as an xlsx workbook.
func (h *SummaryHandler) ExportMaterialSummary(w http.ResponseWriter, r *http.Request) {
	_, filtered, err := h.build(r)
	if err != nil {
		h.fail(w, r, "Could not load material summary", err)
		return
	}

	title := "Material summary"
	if filtered.ProjectID != uuid.Nil {
		if p, err := h.Stores.Projects.Get(r.Context(), filtered.ProjectID); err == nil {
			title += " - " + p.Name
		}
	}

	var buf bytes.Buffer
	if err := summary.WriteExcel(&buf, filtered, title); err != nil {
		h.fail(w, r, "Could not export material summary", err)
		return
	}
	filename := fmt.Sprintf("material-summary-%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}
