// Package repository implements data access on top of database/sql.
// One repository struct per aggregate, plus the transactional Store
// that backs the ticket service's unit of work. Sentinel errors allow
// handlers to distinguish failure scenarios: ErrForbidden indicates
// that the current user may not act on a ticket they neither own nor
// manage, while ErrConflict signals conflicting state such as
// occupying a seat that is already taken.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// ticket they do not own or manage. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as claiming an already occupied seat.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate key error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
