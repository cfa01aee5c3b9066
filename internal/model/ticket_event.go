package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Ticket event types. One row is appended per state transition; rows are
// never updated or deleted.
const (
	EventSeatManagerAppointed = "seat-manager-appointed"
	EventSeatManagerWithdrawn = "seat-manager-withdrawn"
	EventUserManagerAppointed = "user-manager-appointed"
	EventUserManagerWithdrawn = "user-manager-withdrawn"
	EventUserAppointed        = "user-appointed"
	EventUserWithdrawn        = "user-withdrawn"
	EventSeatOccupied         = "seat-occupied"
	EventSeatSwitched         = "seat-switched"
	EventSeatReleased         = "seat-released"
	EventTicketRevoked        = "ticket-revoked"
)

// TicketEvent is an append-only audit record of a ticket state
// transition. Data holds actor and target identifiers; its value set is
// fixed per event type by the constructors below, which is why events
// should never be assembled by hand.
type TicketEvent struct {
	ID         string         // ticket_events.id
	OccurredAt time.Time      // ticket_events.occurred_at
	EventType  string         // ticket_events.event_type
	TicketID   string         // ticket_events.ticket_id
	Data       map[string]any // ticket_events.data (JSON)
}

func newTicketEvent(eventType, ticketID string, data map[string]any) *TicketEvent {
	return &TicketEvent{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		EventType:  eventType,
		TicketID:   ticketID,
		Data:       data,
	}
}

func formatUserID(id uint64) string { return strconv.FormatUint(id, 10) }

// NewSeatManagerAppointed records that a user was appointed as the
// ticket's seat manager.
func NewSeatManagerAppointed(ticketID string, managerID, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventSeatManagerAppointed, ticketID, map[string]any{
		"appointed_seat_manager_id": formatUserID(managerID),
		"initiator_id":              formatUserID(initiatorID),
	})
}

// NewSeatManagerWithdrawn records that the ticket's custom seat manager
// was withdrawn.
func NewSeatManagerWithdrawn(ticketID string, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventSeatManagerWithdrawn, ticketID, map[string]any{
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewUserManagerAppointed records that a user was appointed as the
// ticket's user manager.
func NewUserManagerAppointed(ticketID string, managerID, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventUserManagerAppointed, ticketID, map[string]any{
		"appointed_user_manager_id": formatUserID(managerID),
		"initiator_id":              formatUserID(initiatorID),
	})
}

// NewUserManagerWithdrawn records that the ticket's custom user manager
// was withdrawn.
func NewUserManagerWithdrawn(ticketID string, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventUserManagerWithdrawn, ticketID, map[string]any{
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewUserAppointed records that a user was appointed as the ticket's
// user (the actual attendee).
func NewUserAppointed(ticketID string, userID, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventUserAppointed, ticketID, map[string]any{
		"appointed_user_id": formatUserID(userID),
		"initiator_id":      formatUserID(initiatorID),
	})
}

// NewUserWithdrawn records that the ticket's user was withdrawn.
func NewUserWithdrawn(ticketID string, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventUserWithdrawn, ticketID, map[string]any{
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewSeatOccupied records that the ticket occupied a seat.
func NewSeatOccupied(ticketID string, seatID, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventSeatOccupied, ticketID, map[string]any{
		"seat_id":      strconv.FormatUint(seatID, 10),
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewSeatSwitched records that the ticket moved to a new seat in one
// step. oldSeatID is nil when the ticket was previously unseated, which
// serializes as a JSON null in the payload.
func NewSeatSwitched(ticketID string, oldSeatID *uint64, newSeatID, initiatorID uint64) *TicketEvent {
	var old any
	if oldSeatID != nil {
		old = strconv.FormatUint(*oldSeatID, 10)
	}
	return newTicketEvent(EventSeatSwitched, ticketID, map[string]any{
		"old_seat_id":  old,
		"new_seat_id":  strconv.FormatUint(newSeatID, 10),
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewSeatReleased records that the ticket released its seat.
func NewSeatReleased(ticketID string, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventSeatReleased, ticketID, map[string]any{
		"initiator_id": formatUserID(initiatorID),
	})
}

// NewTicketRevoked records that the ticket's admission right was
// revoked.
func NewTicketRevoked(ticketID string, initiatorID uint64) *TicketEvent {
	return newTicketEvent(EventTicketRevoked, ticketID, map[string]any{
		"initiator_id": formatUserID(initiatorID),
	})
}
