package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/MrFastDie/byceps/internal/model"
)

// TicketEventRepo reads the append-only ticket event log. Events are
// only ever written through the Store's unit of work.
type TicketEventRepo struct {
	db *sql.DB
}

// NewTicketEventRepo constructs a TicketEventRepo with the given DB
// handle.
func NewTicketEventRepo(db *sql.DB) *TicketEventRepo {
	return &TicketEventRepo{db: db}
}

// ListForTicket returns a ticket's events in the order they occurred.
func (r *TicketEventRepo) ListForTicket(ctx context.Context, ticketID string) ([]*model.TicketEvent, error) {
	const q = `SELECT id, occurred_at, event_type, ticket_id, data
	           FROM ticket_events
	           WHERE ticket_id = ?
	           ORDER BY occurred_at, id`
	rows, err := r.db.QueryContext(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.TicketEvent
	for rows.Next() {
		var (
			ev  model.TicketEvent
			raw []byte
		)
		if err := rows.Scan(&ev.ID, &ev.OccurredAt, &ev.EventType, &ev.TicketID, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &ev.Data); err != nil {
			return nil, err
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
