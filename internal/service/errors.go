// Package service implements the ticketing core: ticket creation,
// revocation, delegation, and seat occupation. All mutating operations
// run inside a unit of work so that state changes and their audit
// events commit together.
package service

import "errors"

// ErrInvalidQuantity is returned when a ticket or bundle creation asks
// for fewer than one ticket.
var ErrInvalidQuantity = errors.New("ticket quantity must be positive")

// ErrTicketNotFound is returned when a referenced ticket ID or code
// does not resolve. Handlers should translate this into an HTTP 404.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrBundleNotFound is returned when a referenced bundle ID does not
// resolve.
var ErrBundleNotFound = errors.New("ticket bundle not found")

// ErrSeatChangeDeniedForBundledTicket is returned when a per-ticket
// seat operation is attempted on a bundled ticket. A bundle occupies a
// matching seat group as a whole and must not claim single seats.
var ErrSeatChangeDeniedForBundledTicket = errors.New(
	"ticket belongs to a bundle and must not be used to occupy a single seat")

// ErrCodeConflict indicates that a freshly generated ticket code
// collided with an already persisted one. The storage layer raises it
// from the unique index on tickets.code; CreateTickets retries the
// whole batch a bounded number of times.
var ErrCodeConflict = errors.New("ticket code already taken")
