// Package queue moves committed ticket events through RabbitMQ: a
// publisher invoked by the ticket service after each commit, and a
// background consumer that appends the events to an audit log file.
package queue

import (
	"github.com/MrFastDie/byceps/internal/model"
)

// ticketEventQueueName is the durable queue all ticket events go
// through.
const ticketEventQueueName = "ticket.events"

// TicketEventMessage is the wire form of a committed ticket event. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type TicketEventMessage struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	TicketID   string         `json:"ticket_id"`
	OccurredAt string         `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// NewTicketEventMessage converts a stored event into its wire form.
func NewTicketEventMessage(ev *model.TicketEvent) TicketEventMessage {
	return TicketEventMessage{
		EventID:    ev.ID,
		EventType:  ev.EventType,
		TicketID:   ev.TicketID,
		OccurredAt: ev.OccurredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Data:       ev.Data,
	}
}
