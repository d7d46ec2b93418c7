// Package summary builds the per-material withdrawal matrix shown on the
// material summary page: one row per material description, one column per
// day of a 30-day window.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"p9e.in/sitebook/models"
)

// WindowDays is the number of date columns in a summary.
const WindowDays = 30

type Status string

const (
	StatusOut        Status = "out"
	StatusCritical   Status = "critical"
	StatusLow        Status = "low"
	StatusSufficient Status = "sufficient"
	// StatusUnknown is used when there is stock but no positive total to
	// compare it against.
	StatusUnknown Status = "unknown"
)

// Statuses lists the filterable statuses in display order.
var Statuses = []Status{StatusSufficient, StatusLow, StatusCritical, StatusOut, StatusUnknown}

// StockStatus classifies remaining stock against the total.
func StockStatus(remaining, total float64) Status {
	if remaining <= 0 {
		return StatusOut
	}
	if total <= 0 {
		return StatusUnknown
	}
	ratio := remaining / total
	switch {
	case ratio <= 0.1:
		return StatusCritical
	case ratio <= 0.3:
		return StatusLow
	default:
		return StatusSufficient
	}
}

// Day is one date column.
type Day struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Window returns WindowDays consecutive days starting on the first day of
// anchor's month, running into the next month when needed.
func Window(anchor time.Time) []Day {
	start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := make([]Day, WindowDays)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = Day{Key: d.Format(models.DateLayout), Label: columnLabel(d)}
	}
	return days
}

// columnLabel renders dd/MM/yy with the year in the Buddhist era.
func columnLabel(d time.Time) string {
	return fmt.Sprintf("%s/%02d", d.Format("02/01"), (d.Year()+543)%100)
}

// Withdrawal is one approved line item shown in a date cell.
type Withdrawal struct {
	Amount      float64 `json:"amount"`
	Requester   string  `json:"requester"`
	RequestCode string  `json:"request_code"`
}

type Row struct {
	Description string `json:"description"`
	// TrackingID is the first tracking row with this description, if any.
	TrackingID *uuid.UUID `json:"tracking_id,omitempty"`
	Total      float64    `json:"total_quantity"`
	Used       float64    `json:"used_quantity"`
	Remaining  float64    `json:"remaining_quantity"`
	Status     Status     `json:"status"`
	// Withdrawals is keyed by request date ("2006-01-02"). Entries for one
	// day are kept apart, one per line item.
	Withdrawals map[string][]Withdrawal `json:"daily_withdrawals"`
}

// Cell returns the withdrawals of day for the row.
func (r Row) Cell(day string) []Withdrawal {
	return r.Withdrawals[day]
}

type Input struct {
	Tracking []models.MaterialTracking
	Requests []models.MaterialRequest
	// ProjectID limits the summary to one project; uuid.Nil means all.
	ProjectID uuid.UUID
	Anchor    time.Time
}

type Summary struct {
	ProjectID uuid.UUID `json:"project_id,omitempty"`
	Days      []Day     `json:"days"`
	Rows      []Row     `json:"rows"`
}

// Build aggregates tracking totals and approved request items by
// description. It only reads its input.
func Build(in Input) Summary {
	var (
		rows  []*Row
		index = make(map[string]*Row)
	)
	row := func(desc string) *Row {
		r, ok := index[desc]
		if !ok {
			r = &Row{Description: desc, Withdrawals: map[string][]Withdrawal{}}
			index[desc] = r
			rows = append(rows, r)
		}
		return r
	}

	for _, t := range in.Tracking {
		if in.ProjectID != uuid.Nil && t.ProjectID != in.ProjectID {
			continue
		}
		r := row(t.Description)
		r.Total += t.TotalQuantity
		if r.TrackingID == nil {
			id := t.ID
			r.TrackingID = &id
		}
	}

	for _, req := range in.Requests {
		if req.Status != models.RequestApproved {
			continue
		}
		if in.ProjectID != uuid.Nil && req.ProjectID != in.ProjectID {
			continue
		}
		day := req.RequestDate.String()
		for _, it := range req.Items {
			r := row(it.ItemName)
			amount := it.Amount()
			r.Total += it.Quantity
			r.Used += amount
			if amount != 0 {
				r.Withdrawals[day] = append(r.Withdrawals[day], Withdrawal{
					Amount:      amount,
					Requester:   req.RequesterName,
					RequestCode: req.RequestCode,
				})
			}
		}
	}

	out := Summary{ProjectID: in.ProjectID, Days: Window(in.Anchor), Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		r.Remaining = r.Total - r.Used
		r.Status = StockStatus(r.Remaining, r.Total)
		out.Rows = append(out.Rows, *r)
	}
	return out
}

// Filter keeps rows whose description contains search (case-insensitive)
// and whose status matches. "" and "all" match every status.
func (s Summary) Filter(search, status string) Summary {
	search = strings.ToLower(search)
	out := Summary{ProjectID: s.ProjectID, Days: s.Days, Rows: make([]Row, 0, len(s.Rows))}
	for _, r := range s.Rows {
		if search != "" && !strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		if status != "" && status != "all" && string(r.Status) != status {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Counts returns the number of rows per status.
func (s Summary) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, r := range s.Rows {
		counts[r.Status]++
	}
	return counts
}
