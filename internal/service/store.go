package service

import (
	"context"

	"github.com/MrFastDie/byceps/internal/model"
)

// Store hands out units of work. The repository layer implements it on
// top of *sql.DB; tests substitute an in-memory fake.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is a single transaction over the ticket store. Either
// Commit makes all mutations and event appends visible together, or
// Rollback discards them. Rollback after a successful Commit must be a
// no-op so callers can defer it unconditionally.
type UnitOfWork interface {
	// TicketByID loads a ticket for update. Returns ErrTicketNotFound
	// when the ID does not resolve.
	TicketByID(ctx context.Context, id string) (*model.Ticket, error)

	// TicketsByIDs loads the tickets with the given IDs for update.
	// Returns ErrTicketNotFound when any ID does not resolve.
	TicketsByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error)

	// InsertTickets persists a creation batch. Returns ErrCodeConflict
	// when a code collides with an already stored ticket.
	InsertTickets(ctx context.Context, tickets []*model.Ticket) error

	// InsertBundle persists a new bundle row.
	InsertBundle(ctx context.Context, bundle *model.TicketBundle) error

	// BundleByID loads a bundle. Returns ErrBundleNotFound when the ID
	// does not resolve.
	BundleByID(ctx context.Context, id string) (*model.TicketBundle, error)

	// DeleteBundle removes the bundle row and all tickets created with
	// it, returning the number of tickets deleted.
	DeleteBundle(ctx context.Context, id string) (int64, error)

	// UpdateTicket persists the mutable ticket fields: revoked flag,
	// delegation roles, and occupied seat.
	UpdateTicket(ctx context.Context, t *model.Ticket) error

	// InsertEvent appends one audit event row.
	InsertEvent(ctx context.Context, ev *model.TicketEvent) error

	Commit() error
	Rollback() error
}

// EventPublisher fans committed ticket events out to interested
// consumers. Publishing is best-effort; failures must not affect the
// already committed transaction.
type EventPublisher interface {
	PublishTicketEvent(ctx context.Context, ev *model.TicketEvent)
}
