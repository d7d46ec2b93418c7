// Package reconcile applies the consumption of an approved material request
// to the project's material tracking rows.
//
// Each line item is matched to a tracking row by exact description. The
// item's consumed amount is added to the row's used quantity and to the
// usage ledger under the request date, and remaining is recomputed. Items
// with no matching row or no positive amount are skipped.
package reconcile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"p9e.in/sitebook/models"
	"p9e.in/sitebook/pkg/metrics"
)

// TrackingStore is the persistence the reconciler needs.
type TrackingStore interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.MaterialTracking, error)
	Save(ctx context.Context, row models.MaterialTracking) (*models.MaterialTracking, error)
}

type SkipReason string

const (
	SkipNoMatch  SkipReason = "no_matching_row"
	SkipNoAmount SkipReason = "no_amount"
)

// Skip is a line item that changed nothing.
type Skip struct {
	Item   string     `json:"item"`
	Reason SkipReason `json:"reason"`
}

// Change is a tracking row with this request's consumption applied.
type Change struct {
	Row    models.MaterialTracking
	Amount float64
}

// Triggers reports whether moving a request from prev to next consumes
// stock. Only approving a pending request does.
func Triggers(prev, next models.RequestStatus) bool {
	return prev == models.RequestPending && next == models.RequestApproved
}

// Plan computes the updated tracking rows for req without touching storage.
// Rows of other projects are ignored. When several rows share a description
// the oldest one receives the consumption.
func Plan(req models.MaterialRequest, rows []models.MaterialTracking) ([]Change, []Skip) {
	byDesc := make(map[string]int)
	for i, row := range rows {
		if row.ProjectID != req.ProjectID {
			continue
		}
		if j, ok := byDesc[row.Description]; ok && !row.CreatedAt.Before(rows[j].CreatedAt) {
			continue
		}
		byDesc[row.Description] = i
	}

	var (
		changes []Change
		skips   []Skip
		touched = make(map[int]int) // row index -> change index
	)
	day := req.RequestDate.String()
	for _, it := range req.Items {
		amount := it.Amount()
		if amount <= 0 {
			skips = append(skips, Skip{Item: it.ItemName, Reason: SkipNoAmount})
			continue
		}
		i, ok := byDesc[it.ItemName]
		if !ok {
			skips = append(skips, Skip{Item: it.ItemName, Reason: SkipNoMatch})
			continue
		}
		c, ok := touched[i]
		if !ok {
			row := rows[i]
			row.SetLedger(row.Ledger())
			changes = append(changes, Change{Row: row})
			c = len(changes) - 1
			touched[i] = c
		}
		ch := &changes[c]
		ch.Amount += amount
		ch.Row.UsedQuantity += amount
		ledger := ch.Row.Ledger()
		ledger[day] += amount
		ch.Row.SetLedger(ledger)
		ch.Row.Recompute()
	}
	return changes, skips
}

// Reconciler persists planned changes, one write per row.
type Reconciler struct {
	store TrackingStore
	log   *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func New(store TrackingStore, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log, locks: make(map[uuid.UUID]*sync.Mutex)}
}

// projectLock serializes reconciliations of one project within this
// process. Writers in other processes can still interleave.
func (r *Reconciler) projectLock(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// Reconcile loads the project's tracking rows, plans and saves each changed
// row independently. A failed save does not undo the others; the Result
// lists what happened to every row.
func (r *Reconciler) Reconcile(ctx context.Context, req models.MaterialRequest) Result {
	res := Result{RequestID: req.ID, RequestCode: req.RequestCode}

	l := r.projectLock(req.ProjectID)
	l.Lock()
	defer l.Unlock()

	rows, err := r.store.ListByProject(ctx, req.ProjectID)
	if err != nil {
		res.LoadErr = err
		r.log.Error("load tracking rows", "request_code", req.RequestCode, "project_id", req.ProjectID, "error", err)
		return res
	}

	changes, skips := Plan(req, rows)
	res.Skips = skips
	for _, s := range skips {
		metrics.SkippedItems.WithLabelValues(string(s.Reason)).Inc()
		r.log.Debug("reconcile skipped item", "request_code", req.RequestCode, "item", s.Item, "reason", s.Reason)
	}

	for _, ch := range changes {
		out := Outcome{
			TrackingID:  ch.Row.ID,
			Description: ch.Row.Description,
			Amount:      ch.Amount,
		}
		saved, err := r.store.Save(ctx, ch.Row)
		if err != nil {
			out.Err = err
			metrics.ReconciledRows.WithLabelValues("failed").Inc()
			r.log.Error("save tracking row", "request_code", req.RequestCode, "tracking_id", ch.Row.ID, "error", err)
		} else {
			out.UsedQuantity = saved.UsedQuantity
			out.RemainingQuantity = saved.RemainingQuantity
			metrics.ReconciledRows.WithLabelValues("applied").Inc()
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	r.log.Info("reconciled material request",
		"request_code", req.RequestCode,
		"state", res.State(),
		"rows", len(res.Outcomes),
		"skipped", len(res.Skips))
	return res
}
