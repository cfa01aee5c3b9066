package model

// Seat is a physical seat in a party's seating plan. The ticket core
// treats seat IDs as opaque references; layout and seat-group handling
// live in the seating subsystem.
type Seat struct {
	ID      uint64 // seats.id
	PartyID uint64 // seats.party_id
	Label   string // seats.label, e.g. "B-12"
	CoordX  int    // seats.coord_x
	CoordY  int    // seats.coord_y
}
