package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type State string

const (
	StateApplied State = "applied"
	StatePartial State = "partial"
	StateFailed  State = "failed"
	StateNoop    State = "noop"
)

// Outcome is the result of writing one tracking row.
type Outcome struct {
	TrackingID        uuid.UUID `json:"tracking_id"`
	Description       string    `json:"description"`
	Amount            float64   `json:"amount"`
	UsedQuantity      float64   `json:"used_quantity,omitempty"`
	RemainingQuantity float64   `json:"remaining_quantity,omitempty"`
	Err               error     `json:"-"`
}

func (o Outcome) Failed() bool { return o.Err != nil }

type Result struct {
	RequestID   uuid.UUID
	RequestCode string
	Outcomes    []Outcome
	Skips       []Skip
	// LoadErr is set when the tracking rows could not be read at all.
	LoadErr error
}

func (r Result) failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

func (r Result) State() State {
	if r.LoadErr != nil {
		return StateFailed
	}
	if len(r.Outcomes) == 0 {
		return StateNoop
	}
	switch n := len(r.failed()); {
	case n == 0:
		return StateApplied
	case n == len(r.Outcomes):
		return StateFailed
	default:
		return StatePartial
	}
}

// Err returns a *PartialFailure when any row could not be written, else nil.
func (r Result) Err() error {
	failed := r.failed()
	if r.LoadErr == nil && len(failed) == 0 {
		return nil
	}
	return &PartialFailure{
		RequestCode: r.RequestCode,
		Failed:      failed,
		Applied:     len(r.Outcomes) - len(failed),
		LoadErr:     r.LoadErr,
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	type outcome struct {
		Outcome
		Error string `json:"error,omitempty"`
	}
	outcomes := make([]outcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		oc := outcome{Outcome: o}
		if o.Err != nil {
			oc.Error = o.Err.Error()
		}
		outcomes = append(outcomes, oc)
	}
	skips := r.Skips
	if skips == nil {
		skips = []Skip{}
	}
	body := struct {
		RequestCode string    `json:"request_code"`
		State       State     `json:"state"`
		Outcomes    []outcome `json:"outcomes"`
		Skipped     []Skip    `json:"skipped"`
		Error       string    `json:"error,omitempty"`
	}{
		RequestCode: r.RequestCode,
		State:       r.State(),
		Outcomes:    outcomes,
		Skipped:     skips,
	}
	if r.LoadErr != nil {
		body.Error = r.LoadErr.Error()
	}
	return json.Marshal(body)
}

// PartialFailure reports tracking rows that could not be written during a
// reconciliation. Rows that were written stay written.
type PartialFailure struct {
	RequestCode string
	Failed      []Outcome
	Applied     int
	LoadErr     error
}

func (e *PartialFailure) Error() string {
	if e.LoadErr != nil {
		return fmt.Sprintf("reconcile %s: load tracking rows: %v", e.RequestCode, e.LoadErr)
	}
	parts := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %v", o.Description, o.Err))
	}
	return fmt.Sprintf("reconcile %s: %d of %d tracking rows failed (%s)",
		e.RequestCode, len(e.Failed), len(e.Failed)+e.Applied, strings.Join(parts, "; "))
}

func (e *PartialFailure) Unwrap() []error {
	if e.LoadErr != nil {
		return []error{e.LoadErr}
	}
	errs := make([]error, 0, len(e.Failed))
	for _, o := range e.Failed {
		errs = append(errs, o.Err)
	}
	return errs
}

// IsPartialFailure reports whether err carries a *PartialFailure.
func IsPartialFailure(err error) bool {
	var pf *PartialFailure
	return errors.As(err, &pf)
}
