package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/service"
)

// TicketRepo provides the read paths over tickets. Mutations go through
// the Store's unit of work instead.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// ListParams carries pagination and filtering for party-wide ticket
// listings. Page is 1-based; Search matches the ticket code or the
// assigned attendee's screen name.
type ListParams struct {
	Page      int
	PerPage   int
	Search    string
	OnlyInUse bool
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 25
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var (
		t           model.Ticket
		orderNumber sql.NullString
		seatMgr     sql.NullInt64
		userMgr     sql.NullInt64
		usedBy      sql.NullInt64
		seat        sql.NullInt64
		bundleID    sql.NullString
	)
	err := row.Scan(&t.ID, &t.Code, &t.CategoryID, &t.OwnedByID, &orderNumber,
		&seatMgr, &userMgr, &usedBy, &seat, &bundleID, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if orderNumber.Valid {
		t.OrderNumber = &orderNumber.String
	}
	if seatMgr.Valid {
		v := uint64(seatMgr.Int64)
		t.SeatManagedByID = &v
	}
	if userMgr.Valid {
		v := uint64(userMgr.Int64)
		t.UserManagedByID = &v
	}
	if usedBy.Valid {
		v := uint64(usedBy.Int64)
		t.UsedByID = &v
	}
	if seat.Valid {
		v := uint64(seat.Int64)
		t.OccupiedSeatID = &v
	}
	if bundleID.Valid {
		t.BundleID = &bundleID.String
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*model.Ticket, error) {
	defer rows.Close()
	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// FindByID fetches a single ticket.
func (r *TicketRepo) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByCode fetches a ticket by its printed code. The match is
// case-insensitive since codes are read off badges and printouts.
func (r *TicketRepo) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE UPPER(code) = ?`
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByIDs fetches all tickets with the given IDs. Missing IDs are
// simply absent from the result.
func (r *TicketRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// FindByOrderNumber fetches all tickets created by a shop order.
func (r *TicketRepo) FindByOrderNumber(ctx context.Context, orderNumber string) ([]*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
	           WHERE order_number = ? ORDER BY created_at, code`
	rows, err := r.db.QueryContext(ctx, q, orderNumber)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// FindForBundle fetches all tickets created with a bundle.
func (r *TicketRepo) FindForBundle(ctx context.Context, bundleID string) ([]*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
	           WHERE bundle_id = ? ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q, bundleID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// RelatedToUser fetches all non-revoked tickets a user owns, manages,
// or uses, across all parties.
func (r *TicketRepo) RelatedToUser(ctx context.Context, userID uint64) ([]*model.Ticket, error) {
	const q = `SELECT ` + ticketColumns + ` FROM tickets
	           WHERE revoked = FALSE
	             AND (owned_by_id = ? OR seat_managed_by_id = ?
	                  OR user_managed_by_id = ? OR used_by_id = ?)
	           ORDER BY created_at, code`
	rows, err := r.db.QueryContext(ctx, q, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// RelatedToUserForParty fetches the non-revoked tickets a user owns,
// manages, or uses for one party.
func (r *TicketRepo) RelatedToUserForParty(ctx context.Context, userID, partyID uint64) ([]*model.Ticket, error) {
	const q = `SELECT t.id, t.code, t.category_id, t.owned_by_id, t.order_number,
	                  t.seat_managed_by_id, t.user_managed_by_id, t.used_by_id,
	                  t.occupied_seat_id, t.bundle_id, t.revoked, t.created_at
	           FROM tickets t
	           JOIN ticket_categories c ON c.id = t.category_id
	           WHERE c.party_id = ? AND t.revoked = FALSE
	             AND (t.owned_by_id = ? OR t.seat_managed_by_id = ?
	                  OR t.user_managed_by_id = ? OR t.used_by_id = ?)
	           ORDER BY t.created_at, t.code`
	rows, err := r.db.QueryContext(ctx, q, partyID, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// ForSeatManager fetches the party's non-revoked tickets whose seat the
// user may manage: explicitly appointed, or owned with no override set.
func (r *TicketRepo) ForSeatManager(ctx context.Context, userID, partyID uint64) ([]*model.Ticket, error) {
	const q = `SELECT t.id, t.code, t.category_id, t.owned_by_id, t.order_number,
	                  t.seat_managed_by_id, t.user_managed_by_id, t.used_by_id,
	                  t.occupied_seat_id, t.bundle_id, t.revoked, t.created_at
	           FROM tickets t
	           JOIN ticket_categories c ON c.id = t.category_id
	           WHERE c.party_id = ? AND t.revoked = FALSE
	             AND (t.seat_managed_by_id = ?
	                  OR (t.seat_managed_by_id IS NULL AND t.owned_by_id = ?))
	           ORDER BY t.created_at, t.code`
	rows, err := r.db.QueryContext(ctx, q, partyID, userID, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// UsedByUserForParty fetches the party's non-revoked tickets assigned
// to the user as attendee.
func (r *TicketRepo) UsedByUserForParty(ctx context.Context, userID, partyID uint64) ([]*model.Ticket, error) {
	const q = `SELECT t.id, t.code, t.category_id, t.owned_by_id, t.order_number,
	                  t.seat_managed_by_id, t.user_managed_by_id, t.used_by_id,
	                  t.occupied_seat_id, t.bundle_id, t.revoked, t.created_at
	           FROM tickets t
	           JOIN ticket_categories c ON c.id = t.category_id
	           WHERE c.party_id = ? AND t.revoked = FALSE AND t.used_by_id = ?
	           ORDER BY t.created_at, t.code`
	rows, err := r.db.QueryContext(ctx, q, partyID, userID)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// UsesAnyTicketForParty reports whether the user is the assigned
// attendee on at least one non-revoked ticket for the party.
func (r *TicketRepo) UsesAnyTicketForParty(ctx context.Context, userID, partyID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	             SELECT 1 FROM tickets t
	             JOIN ticket_categories c ON c.id = t.category_id
	             WHERE c.party_id = ? AND t.revoked = FALSE AND t.used_by_id = ?
	           )`
	var uses bool
	if err := r.db.QueryRowContext(ctx, q, partyID, userID).Scan(&uses); err != nil {
		return false, err
	}
	return uses, nil
}

// listForPartyQuery builds the paginated listing query. Expects
// normalized params. The search term matches the ticket code or the
// assigned attendee's screen name, so the users join goes through
// used_by_id; an owner who bought tickets for others does not match.
func listForPartyQuery(partyID uint64, params ListParams) (string, []interface{}) {
	q := `SELECT t.id, t.code, t.category_id, t.owned_by_id, t.order_number,
	             t.seat_managed_by_id, t.user_managed_by_id, t.used_by_id,
	             t.occupied_seat_id, t.bundle_id, t.revoked, t.created_at
	      FROM tickets t
	      JOIN ticket_categories c ON c.id = t.category_id
	      LEFT JOIN users attendee ON attendee.id = t.used_by_id
	      WHERE c.party_id = ?`
	args := []interface{}{partyID}

	if params.OnlyInUse {
		q += ` AND t.revoked = FALSE AND t.used_by_id IS NOT NULL`
	}
	if params.Search != "" {
		q += ` AND (t.code LIKE ? OR attendee.screen_name LIKE ?)`
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}
	q += ` ORDER BY t.created_at, t.code LIMIT ? OFFSET ?`
	args = append(args, params.PerPage, (params.Page-1)*params.PerPage)
	return q, args
}

// ListForParty returns one page of the party's tickets, newest last.
// With OnlyInUse set, only non-revoked tickets with an assigned
// attendee are returned. Search matches the ticket code or the
// assigned attendee's screen name.
func (r *TicketRepo) ListForParty(ctx context.Context, partyID uint64, params ListParams) ([]*model.Ticket, error) {
	q, args := listForPartyQuery(partyID, params.normalized())
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectTickets(rows)
}

// countForPartyQuery builds the ticket count query. Revoked tickets
// never count; the total is the number of sold tickets.
func countForPartyQuery(partyID uint64, onlyInUse bool) (string, []interface{}) {
	q := `SELECT COUNT(*) FROM tickets t
	      JOIN ticket_categories c ON c.id = t.category_id
	      WHERE c.party_id = ? AND t.revoked = FALSE`
	if onlyInUse {
		q += ` AND t.used_by_id IS NOT NULL`
	}
	return q, []interface{}{partyID}
}

// CountForParty counts the party's sold tickets, i.e. generated and
// not revoked.
func (r *TicketRepo) CountForParty(ctx context.Context, partyID uint64) (int, error) {
	q, args := countForPartyQuery(partyID, false)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// CountInUseForParty counts the party's non-revoked tickets with an
// assigned attendee.
func (r *TicketRepo) CountInUseForParty(ctx context.Context, partyID uint64) (int, error) {
	q, args := countForPartyQuery(partyID, true)
	var n int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}
