package model

import "time"

// Ticket represents a single admission right for a party. Every ticket
// carries a short human-readable code and belongs to a category and an
// owner. Three delegation roles can be assigned independently of the
// owner; each is nullable and falls back to the owner's implicit right
// when unset.
//
// Fields:
//
//	ID              - primary key (UUID).
//	Code            - unique 5-letter code shown on the ticket.
//	CategoryID      - ticket category the ticket was generated for.
//	OwnedByID       - user who acquired the ticket.
//	OrderNumber     - shop order that created the ticket, if any.
//	SeatManagedByID - user allowed to manage the ticket's seat (override).
//	UserManagedByID - user allowed to manage the ticket's user (override).
//	UsedByID        - the actual attendee, if assigned.
//	OccupiedSeatID  - seat currently claimed by the ticket, if any.
//	BundleID        - bundle the ticket was created with, if any.
//	Revoked         - whether the admission right has been revoked.
//	CreatedAt       - creation timestamp (UTC).
type Ticket struct {
	ID              string    // tickets.id
	Code            string    // tickets.code
	CategoryID      uint64    // tickets.category_id
	OwnedByID       uint64    // tickets.owned_by_id
	OrderNumber     *string   // tickets.order_number (nullable)
	SeatManagedByID *uint64   // tickets.seat_managed_by_id (nullable)
	UserManagedByID *uint64   // tickets.user_managed_by_id (nullable)
	UsedByID        *uint64   // tickets.used_by_id (nullable)
	OccupiedSeatID  *uint64   // tickets.occupied_seat_id (nullable)
	BundleID        *string   // tickets.bundle_id (nullable)
	Revoked         bool      // tickets.revoked
	CreatedAt       time.Time // tickets.created_at
}

// BelongsToBundle reports whether the ticket was created as part of a
// bundle. Bundled tickets must not occupy single seats individually.
func (t *Ticket) BelongsToBundle() bool {
	return t.BundleID != nil
}

// SeatManagerID returns the user entitled to manage the ticket's seat:
// the explicit override when set, otherwise the owner.
func (t *Ticket) SeatManagerID() uint64 {
	if t.SeatManagedByID != nil {
		return *t.SeatManagedByID
	}
	return t.OwnedByID
}

// UserManagerID returns the user entitled to manage the ticket's user:
// the explicit override when set, otherwise the owner.
func (t *Ticket) UserManagerID() uint64 {
	if t.UserManagedByID != nil {
		return *t.UserManagedByID
	}
	return t.OwnedByID
}
