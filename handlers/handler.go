// Package handlers implements the JSON API over the stores.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/sitebook/pkg/blob"
	"p9e.in/sitebook/pkg/notify"
	"p9e.in/sitebook/pkg/reconcile"
	"p9e.in/sitebook/pkg/store"
)

// Deps are the services every handler is built from.
type Deps struct {
	Stores     *store.Stores
	Reconciler *reconcile.Reconciler
	Blobs      blob.Store
	Notifier   notify.Notifier
	Feed       *notify.Feed
	Log        *slog.Logger
	Location   *time.Location
	// MaxFiles caps the number of images per upload request.
	MaxFiles int
}

func (d Deps) now() time.Time {
	if d.Location == nil {
		return time.Now()
	}
	return time.Now().In(d.Location)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps store and reconcile errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case store.IsNotFound(err):
		return http.StatusNotFound
	case store.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON, logs it and raises one error notice. title is
// the user-facing summary, e.g. "Could not create project".
func (d Deps) fail(w http.ResponseWriter, r *http.Request, title string, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}
	if status >= 500 {
		d.Log.Error(title, "path", r.URL.Path, "error", err)
	} else {
		d.Log.Warn(title, "path", r.URL.Path, "error", err)
	}
	d.Notifier.Error(title, err.Error())
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON: " + err.Error())
	}
	return nil
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errors.New("invalid id")
	}
	return id, nil
}

// queryID parses an optional uuid query parameter; absent means uuid.Nil.
func queryID(r *http.Request, name string) (uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, errors.New("invalid " + name)
	}
	return id, nil
}

func wantRefresh(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return ok
}

// lister is the read side shared by every store.
type lister[T any] interface {
	List(ctx context.Context) ([]T, error)
	Refresh(ctx context.Context) ([]T, error)
}

// load returns the cached collection, or a fresh read when refresh is set.
func load[T any](r *http.Request, l lister[T]) ([]T, error) {
	if wantRefresh(r) {
		return l.Refresh(r.Context())
	}
	return l.List(r.Context())
}
