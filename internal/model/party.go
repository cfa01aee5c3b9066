package model

import "time"

// Party is a single event (convention, LAN party) that tickets are sold
// for. Tickets are scoped to a party through their category.
//
// Fields:
//
//	ID       - primary key identifier.
//	Title    - display title.
//	StartsAt - opening time (UTC).
//	EndsAt   - closing time (UTC).
type Party struct {
	ID       uint64    // parties.id
	Title    string    // parties.title
	StartsAt time.Time // parties.starts_at
	EndsAt   time.Time // parties.ends_at
}
