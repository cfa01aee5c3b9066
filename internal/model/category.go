package model

// Category groups a party's tickets, e.g. by admission class. Every
// ticket references exactly one category, and categories tie tickets to
// their party.
type Category struct {
	ID      uint64 // ticket_categories.id
	PartyID uint64 // ticket_categories.party_id
	Title   string // ticket_categories.title
}
