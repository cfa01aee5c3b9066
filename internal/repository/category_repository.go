package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrFastDie/byceps/internal/model"
)

// ErrCategoryNotFound is returned when a category lookup yields no
// rows.
var ErrCategoryNotFound = errors.New("ticket category not found")

// CategoryRepo provides access to party-scoped ticket categories.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo constructs a CategoryRepo with the given DB handle.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a category and populates its ID.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	const q = `INSERT INTO ticket_categories (party_id, title) VALUES (?,?)`
	res, err := r.db.ExecContext(ctx, q, c.PartyID, c.Title)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// FindByID fetches a single category.
func (r *CategoryRepo) FindByID(ctx context.Context, id uint64) (*model.Category, error) {
	const q = `SELECT id, party_id, title FROM ticket_categories WHERE id = ?`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.PartyID, &c.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListForParty returns the party's categories in insertion order.
func (r *CategoryRepo) ListForParty(ctx context.Context, partyID uint64) ([]*model.Category, error) {
	const q = `SELECT id, party_id, title FROM ticket_categories WHERE party_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.PartyID, &c.Title); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
