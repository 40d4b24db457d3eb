// Package apperror defines the error taxonomy shared by every engine
// operation. Handlers map these to HTTP status codes; batch operations
// collect them per item instead of aborting.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or missing input. Nothing was mutated.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
	}
	return "validation: " + e.Msg
}

// Validationf builds a ValidationError without a field reference.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StateConflictError reports that the entity is not in the state required
// for the requested transition. Nothing was mutated.
type StateConflictError struct {
	Entity   string
	ID       uint
	Current  string
	Required string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: %s %d is %q, requires %q", e.Entity, e.ID, e.Current, e.Required)
}

// AuthorizationError reports that the caller lacks scope over the target.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return "authorization: " + e.Msg }

// DependencyError wraps a collaborator failure (notification dispatch,
// document storage). It is logged, never propagated to the caller of a
// money-mutating operation.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// ItemError is one failed item inside a batch operation.
type ItemError struct {
	Index int    `json:"index"`
	Ref   string `json:"ref,omitempty"`
	Error string `json:"error"`
}

// BatchResult enumerates per-item outcomes of a multi-item operation.
// The caller decides whether partial success is acceptable.
type BatchResult struct {
	Succeeded int         `json:"succeeded"`
	Errors    []ItemError `json:"errors,omitempty"`
}

// Add records one failed item.
func (b *BatchResult) Add(index int, ref string, err error) {
	b.Errors = append(b.Errors, ItemError{Index: index, Ref: ref, Error: err.Error()})
}

// HTTPStatus maps an engine error to a status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var sc *StateConflictError
	var ae *AuthorizationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &sc):
		return http.StatusConflict
	case errors.As(err, &ae):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
