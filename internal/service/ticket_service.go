package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrFastDie/byceps/internal/model"
)

// maxCodeConflictRetries bounds how often a creation batch is retried
// when a generated code collides with a stored one. The alphabet gives
// over 2.4 million permutations, so a second conflict in a row already
// indicates something is wrong.
const maxCodeConflictRetries = 3

// TicketService orchestrates the ticket lifecycle. Every mutating
// operation is one unit of work: the state change and its audit event
// commit together or not at all. Committed events are additionally
// published to the event publisher, best-effort.
//
// The service performs no authorization checks; callers must have
// already validated that the initiator may act on the ticket.
type TicketService struct {
	store     Store
	publisher EventPublisher // may be nil
}

// NewTicketService constructs a TicketService. publisher may be nil to
// disable event fan-out.
func NewTicketService(store Store, publisher EventPublisher) *TicketService {
	if store == nil {
		panic("nil store passed to NewTicketService")
	}
	return &TicketService{store: store, publisher: publisher}
}

func (s *TicketService) publish(ctx context.Context, events ...*model.TicketEvent) {
	if s.publisher == nil {
		return
	}
	for _, ev := range events {
		s.publisher.PublishTicketEvent(ctx, ev)
	}
}

// ----- creation -----

// CreateTicket creates a single ticket of the given category for the
// owner.
func (s *TicketService) CreateTicket(ctx context.Context, categoryID, ownerID uint64, orderNumber *string) (*model.Ticket, error) {
	tickets, err := s.CreateTickets(ctx, categoryID, ownerID, 1, orderNumber)
	if err != nil {
		return nil, err
	}
	return tickets[0], nil
}

// CreateTickets creates a number of tickets of the same category for a
// single owner, all persisted as one atomic batch. Codes are pairwise
// distinct within the batch; the unique index on tickets.code backs
// global uniqueness, and the whole batch is regenerated and retried
// when the store reports a collision.
func (s *TicketService) CreateTickets(ctx context.Context, categoryID, ownerID uint64, quantity int, orderNumber *string) ([]*model.Ticket, error) {
	var lastErr error
	for attempt := 0; attempt < maxCodeConflictRetries; attempt++ {
		tickets, err := buildTickets(categoryID, ownerID, quantity, nil, orderNumber)
		if err != nil {
			return nil, err
		}
		uow, err := s.store.Begin(ctx)
		if err != nil {
			return nil, err
		}
		if err := uow.InsertTickets(ctx, tickets); err != nil {
			_ = uow.Rollback()
			if errors.Is(err, ErrCodeConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}
		return tickets, nil
	}
	return nil, lastErr
}

// CreateTicketBundle creates a bundle and its tickets in a single
// transaction. The tickets share the bundle's category and owner and
// reference the bundle.
func (s *TicketService) CreateTicketBundle(ctx context.Context, categoryID uint64, quantity int, ownerID uint64) (*model.TicketBundle, []*model.Ticket, error) {
	if quantity < 1 {
		return nil, nil, ErrInvalidQuantity
	}
	var lastErr error
	for attempt := 0; attempt < maxCodeConflictRetries; attempt++ {
		bundle := &model.TicketBundle{
			ID:             uuid.NewString(),
			CategoryID:     categoryID,
			TicketQuantity: quantity,
			OwnedByID:      ownerID,
			CreatedAt:      time.Now().UTC(),
		}
		tickets, err := buildTickets(categoryID, ownerID, quantity, &bundle.ID, nil)
		if err != nil {
			return nil, nil, err
		}
		uow, err := s.store.Begin(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := uow.InsertBundle(ctx, bundle); err != nil {
			_ = uow.Rollback()
			return nil, nil, err
		}
		if err := uow.InsertTickets(ctx, tickets); err != nil {
			_ = uow.Rollback()
			if errors.Is(err, ErrCodeConflict) {
				lastErr = err
				continue
			}
			return nil, nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, nil, err
		}
		return bundle, tickets, nil
	}
	return nil, nil, lastErr
}

// DeleteTicketBundle deletes the bundle and all tickets created with
// it. Returns ErrBundleNotFound when the ID does not resolve.
func (s *TicketService) DeleteTicketBundle(ctx context.Context, bundleID string) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	if _, err := uow.BundleByID(ctx, bundleID); err != nil {
		return err
	}
	if _, err := uow.DeleteBundle(ctx, bundleID); err != nil {
		return err
	}
	return uow.Commit()
}

// buildTickets assembles a creation batch with freshly generated codes
// that are distinct within the batch.
func buildTickets(categoryID, ownerID uint64, quantity int, bundleID *string, orderNumber *string) ([]*model.Ticket, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	codes := make(map[string]struct{}, quantity)
	tickets := make([]*model.Ticket, 0, quantity)
	for i := 0; i < quantity; i++ {
		code, err := generateTicketCodeNotIn(codes)
		if err != nil {
			return nil, err
		}
		codes[code] = struct{}{}
		tickets = append(tickets, &model.Ticket{
			ID:          uuid.NewString(),
			Code:        code,
			CategoryID:  categoryID,
			OwnedByID:   ownerID,
			OrderNumber: orderNumber,
			BundleID:    bundleID,
			CreatedAt:   time.Now().UTC(),
		})
	}
	return tickets, nil
}

// ----- revocation -----

// RevokeTicket revokes the ticket and records a ticket-revoked event.
// The seat and delegation fields are left untouched.
func (s *TicketService) RevokeTicket(ctx context.Context, ticketID string, initiatorID uint64) error {
	return s.RevokeTickets(ctx, []string{ticketID}, initiatorID)
}

// RevokeTickets revokes all given tickets in one transaction. Returns
// ErrTicketNotFound when any ID does not resolve, in which case no
// ticket is revoked.
func (s *TicketService) RevokeTickets(ctx context.Context, ticketIDs []string, initiatorID uint64) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	tickets, err := uow.TicketsByIDs(ctx, ticketIDs)
	if err != nil {
		return err
	}
	events := make([]*model.TicketEvent, 0, len(tickets))
	for _, t := range tickets {
		t.Revoked = true
		if err := uow.UpdateTicket(ctx, t); err != nil {
			return err
		}
		ev := model.NewTicketRevoked(t.ID, initiatorID)
		if err := uow.InsertEvent(ctx, ev); err != nil {
			return err
		}
		events = append(events, ev)
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.publish(ctx, events...)
	return nil
}

// ----- delegation: user -----

// AppointUserManager appoints the user as the ticket's user manager.
func (s *TicketService) AppointUserManager(ctx context.Context, ticketID string, managerID, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.UserManagedByID = &managerID
		return model.NewUserManagerAppointed(t.ID, managerID, initiatorID), nil
	})
}

// WithdrawUserManager withdraws the ticket's custom user manager.
func (s *TicketService) WithdrawUserManager(ctx context.Context, ticketID string, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.UserManagedByID = nil
		return model.NewUserManagerWithdrawn(t.ID, initiatorID), nil
	})
}

// AppointUser appoints the user as the ticket's user, i.e. the actual
// attendee.
func (s *TicketService) AppointUser(ctx context.Context, ticketID string, userID, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.UsedByID = &userID
		return model.NewUserAppointed(t.ID, userID, initiatorID), nil
	})
}

// WithdrawUser withdraws the ticket's user.
func (s *TicketService) WithdrawUser(ctx context.Context, ticketID string, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.UsedByID = nil
		return model.NewUserWithdrawn(t.ID, initiatorID), nil
	})
}

// ----- delegation: seat -----

// AppointSeatManager appoints the user as the ticket's seat manager.
func (s *TicketService) AppointSeatManager(ctx context.Context, ticketID string, managerID, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.SeatManagedByID = &managerID
		return model.NewSeatManagerAppointed(t.ID, managerID, initiatorID), nil
	})
}

// WithdrawSeatManager withdraws the ticket's custom seat manager.
func (s *TicketService) WithdrawSeatManager(ctx context.Context, ticketID string, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		t.SeatManagedByID = nil
		return model.NewSeatManagerWithdrawn(t.ID, initiatorID), nil
	})
}

// ----- seat occupation -----

// OccupySeat occupies the seat with this ticket. Bundled tickets are
// rejected with ErrSeatChangeDeniedForBundledTicket.
func (s *TicketService) OccupySeat(ctx context.Context, ticketID string, seatID, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		if err := denySeatManagementIfBundled(t); err != nil {
			return nil, err
		}
		t.OccupiedSeatID = &seatID
		return model.NewSeatOccupied(t.ID, seatID, initiatorID), nil
	})
}

// SwitchSeat releases the seat occupied by this ticket and occupies the
// new seat in a single step. A previously unseated ticket simply
// occupies the new seat; the recorded old seat is null in that case.
func (s *TicketService) SwitchSeat(ctx context.Context, ticketID string, newSeatID, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		if err := denySeatManagementIfBundled(t); err != nil {
			return nil, err
		}
		oldSeatID := t.OccupiedSeatID
		t.OccupiedSeatID = &newSeatID
		return model.NewSeatSwitched(t.ID, oldSeatID, newSeatID, initiatorID), nil
	})
}

// ReleaseSeat releases the seat occupied by this ticket.
func (s *TicketService) ReleaseSeat(ctx context.Context, ticketID string, initiatorID uint64) error {
	return s.mutateTicket(ctx, ticketID, func(t *model.Ticket) (*model.TicketEvent, error) {
		if err := denySeatManagementIfBundled(t); err != nil {
			return nil, err
		}
		t.OccupiedSeatID = nil
		return model.NewSeatReleased(t.ID, initiatorID), nil
	})
}

func denySeatManagementIfBundled(t *model.Ticket) error {
	if t.BelongsToBundle() {
		return ErrSeatChangeDeniedForBundledTicket
	}
	return nil
}

// mutateTicket loads a ticket, applies fn, and commits the mutated
// ticket together with the event fn returned. When fn fails, nothing is
// persisted and no event is appended.
func (s *TicketService) mutateTicket(ctx context.Context, ticketID string, fn func(*model.Ticket) (*model.TicketEvent, error)) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback() }()

	t, err := uow.TicketByID(ctx, ticketID)
	if err != nil {
		return err
	}
	ev, err := fn(t)
	if err != nil {
		return err
	}
	if err := uow.UpdateTicket(ctx, t); err != nil {
		return err
	}
	if err := uow.InsertEvent(ctx, ev); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	s.publish(ctx, ev)
	return nil
}
