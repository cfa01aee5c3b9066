package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/service"
)

// TicketBundleRepo reads ticket bundles. Bundle creation and deletion
// run through the Store's unit of work together with their tickets.
type TicketBundleRepo struct {
	db *sql.DB
}

// NewTicketBundleRepo constructs a TicketBundleRepo with the given DB
// handle.
func NewTicketBundleRepo(db *sql.DB) *TicketBundleRepo {
	return &TicketBundleRepo{db: db}
}

// FindByID fetches a single bundle.
func (r *TicketBundleRepo) FindByID(ctx context.Context, id string) (*model.TicketBundle, error) {
	const q = `SELECT id, category_id, ticket_quantity, owned_by_id, created_at
	           FROM ticket_bundles WHERE id = ?`
	var b model.TicketBundle
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.CategoryID, &b.TicketQuantity, &b.OwnedByID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrBundleNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListForParty returns all bundles whose category belongs to the party.
func (r *TicketBundleRepo) ListForParty(ctx context.Context, partyID uint64) ([]*model.TicketBundle, error) {
	const q = `SELECT b.id, b.category_id, b.ticket_quantity, b.owned_by_id, b.created_at
	           FROM ticket_bundles b
	           JOIN ticket_categories c ON c.id = b.category_id
	           WHERE c.party_id = ?
	           ORDER BY b.created_at, b.id`
	rows, err := r.db.QueryContext(ctx, q, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []*model.TicketBundle
	for rows.Next() {
		var b model.TicketBundle
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.TicketQuantity, &b.OwnedByID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bundles = append(bundles, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bundles, nil
}
