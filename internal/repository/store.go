package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/service"
)

// Store implements service.Store on top of *sql.DB. Each Begin opens
// one database transaction wrapped as a service.UnitOfWork.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store with the given DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin opens a transaction and returns it as a unit of work.
func (s *Store) Begin(ctx context.Context) (service.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &unitOfWork{tx: tx}, nil
}

// unitOfWork is one *sql.Tx. Rollback after Commit is a no-op so the
// service layer can defer it unconditionally.
type unitOfWork struct {
	tx        *sql.Tx
	committed bool
}

const ticketColumns = `id, code, category_id, owned_by_id, order_number,
	seat_managed_by_id, user_managed_by_id, used_by_id, occupied_seat_id,
	bundle_id, revoked, created_at`

// TicketByID loads a ticket inside the transaction, locked for update.
func (u *unitOfWork) TicketByID(ctx context.Context, id string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
	t, err := scanTicket(u.tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// TicketsByIDs loads all given tickets locked for update. Any ID that
// does not resolve fails the whole lookup with ErrTicketNotFound.
func (u *unitOfWork) TicketsByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error) {
	tickets := make([]*model.Ticket, 0, len(ids))
	for _, id := range ids {
		t, err := u.TicketByID(ctx, id)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// InsertTickets persists a creation batch in one statement. A duplicate
// key at this point can only be the unique index on tickets.code, which
// is surfaced as ErrCodeConflict so the service can retry the batch.
func (u *unitOfWork) InsertTickets(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (` + ticketColumns + `) VALUES `
	args := make([]interface{}, 0, len(tickets)*12)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?,?,?,?,?,?,?,?)"
		args = append(args,
			t.ID, t.Code, t.CategoryID, t.OwnedByID, t.OrderNumber,
			t.SeatManagedByID, t.UserManagedByID, t.UsedByID, t.OccupiedSeatID,
			t.BundleID, t.Revoked, t.CreatedAt)
	}
	if _, err := u.tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return service.ErrCodeConflict
		}
		return err
	}
	return nil
}

// InsertBundle persists a new bundle row.
func (u *unitOfWork) InsertBundle(ctx context.Context, b *model.TicketBundle) error {
	const q = `INSERT INTO ticket_bundles (id, category_id, ticket_quantity, owned_by_id, created_at)
	           VALUES (?,?,?,?,?)`
	_, err := u.tx.ExecContext(ctx, q, b.ID, b.CategoryID, b.TicketQuantity, b.OwnedByID, b.CreatedAt)
	return err
}

// BundleByID loads a bundle inside the transaction.
func (u *unitOfWork) BundleByID(ctx context.Context, id string) (*model.TicketBundle, error) {
	const q = `SELECT id, category_id, ticket_quantity, owned_by_id, created_at
	           FROM ticket_bundles WHERE id = ? FOR UPDATE`
	var b model.TicketBundle
	err := u.tx.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.CategoryID, &b.TicketQuantity, &b.OwnedByID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrBundleNotFound
		}
		return nil, err
	}
	return &b, nil
}

// DeleteBundle removes the bundle's tickets, then the bundle row.
// Returns the number of tickets deleted.
func (u *unitOfWork) DeleteBundle(ctx context.Context, id string) (int64, error) {
	res, err := u.tx.ExecContext(ctx, `DELETE FROM tickets WHERE bundle_id = ?`, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := u.tx.ExecContext(ctx, `DELETE FROM ticket_bundles WHERE id = ?`, id); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateTicket persists the mutable ticket fields. A duplicate key here
// can only be the unique index on tickets.occupied_seat_id, i.e. the
// seat is already claimed by another ticket.
func (u *unitOfWork) UpdateTicket(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets
	           SET seat_managed_by_id = ?, user_managed_by_id = ?, used_by_id = ?,
	               occupied_seat_id = ?, revoked = ?
	           WHERE id = ?`
	// RowsAffected is not checked: it is 0 both for a missing row and
	// for a no-op update, and the preceding locked read already ruled
	// out the former.
	_, err := u.tx.ExecContext(ctx, q,
		t.SeatManagedByID, t.UserManagedByID, t.UsedByID, t.OccupiedSeatID, t.Revoked, t.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// InsertEvent appends one audit event row. The payload is stored as
// JSON.
func (u *unitOfWork) InsertEvent(ctx context.Context, ev *model.TicketEvent) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	const q = `INSERT INTO ticket_events (id, occurred_at, event_type, ticket_id, data)
	           VALUES (?,?,?,?,?)`
	_, err = u.tx.ExecContext(ctx, q, ev.ID, ev.OccurredAt, ev.EventType, ev.TicketID, data)
	return err
}

func (u *unitOfWork) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return err
	}
	u.committed = true
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.committed {
		return nil
	}
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
