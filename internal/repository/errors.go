// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrSchemaNotProvisioned signals that an
// expected table has not been created yet (a deployment problem,
// not a data problem).
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting state. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrSchemaNotProvisioned is returned when a query fails because the
// backing table does not exist. It is deliberately distinct from
// sql.ErrNoRows: an absent row is a normal outcome, an absent table
// means migrations were never run.
var ErrSchemaNotProvisioned = errors.New("schema not provisioned")

// ErrSchemaMisconfigured is returned when the store rejects a statement
// for permission/policy reasons, typically a grant missing for the
// service account. Handlers surface this as a blocking error with
// remediation text rather than retrying.
var ErrSchemaMisconfigured = errors.New("schema misconfigured")

// ErrActiveRequestExists is returned when a user submits a new design
// request while a previous one has not reached a terminal status.
// Handlers translate this into an HTTP 409 response.
var ErrActiveRequestExists = errors.New("an active request already exists")

// missingTableMarkers are substrings that identify a missing-table
// error across MySQL ("Error 1146 ... doesn't exist") and Postgres
// ("relation ... does not exist") wording. String matching is the only
// portable option here; database/sql does not type these.
var missingTableMarkers = []string{"1146", "doesn't exist", "does not exist", "relation"}

// deniedMarkers identify permission/grant failures.
var deniedMarkers = []string{"1142", "command denied", "access denied", "permission denied"}

// ClassifySchemaError maps a raw driver error onto the schema sentinel
// taxonomy. Errors that match neither class are returned unchanged so
// callers keep their original context.
func ClassifySchemaError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, m := range missingTableMarkers {
		if strings.Contains(msg, m) {
			return ErrSchemaNotProvisioned
		}
	}
	for _, m := range deniedMarkers {
		if strings.Contains(msg, m) {
			return ErrSchemaMisconfigured
		}
	}
	return err
}
