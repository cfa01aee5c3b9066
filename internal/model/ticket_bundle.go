package model

import "time"

// TicketBundle groups tickets that were created together and share a
// category and owner. The bundle and its tickets are created in one
// transaction and deleted as a unit.
//
// Fields:
//
//	ID             - primary key (UUID).
//	CategoryID     - category of all tickets in the bundle.
//	TicketQuantity - number of tickets created with the bundle.
//	OwnedByID      - user who acquired the bundle.
//	CreatedAt      - creation timestamp (UTC).
type TicketBundle struct {
	ID             string    // ticket_bundles.id
	CategoryID     uint64    // ticket_bundles.category_id
	TicketQuantity int       // ticket_bundles.ticket_quantity
	OwnedByID      uint64    // ticket_bundles.owned_by_id
	CreatedAt      time.Time // ticket_bundles.created_at
}
