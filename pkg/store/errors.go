package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"p9e.in/sitebook/pkg/metrics"
)

var (
	// ErrNotFound is wrapped by PersistenceError when the id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is wrapped by PersistenceError when a write clashes with
	// rows already stored, such as references to a deleted record.
	ErrConflict = errors.New("conflicting record")
)

// ValidationError reports input that was rejected before any database call.
// Fields maps the JSON field path to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.add(field, msg)
	return e
}

// PersistenceError is a rejected read or write against the database.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op, collection string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrDuplicatedKey):
		err = fmt.Errorf("%w: %w", ErrConflict, err)
	}
	metrics.PersistenceErrors.WithLabelValues(collection, op).Inc()
	return &PersistenceError{Op: op, Collection: collection, Err: err}
}

// IsNotFound reports whether err is a PersistenceError for a missing id.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a referential or uniqueness conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
