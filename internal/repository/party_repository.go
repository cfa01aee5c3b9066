package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrFastDie/byceps/internal/model"
)

// ErrPartyNotFound is returned when a party lookup yields no rows.
var ErrPartyNotFound = errors.New("party not found")

// PartyRepo provides access to parties.
type PartyRepo struct {
	db *sql.DB
}

// NewPartyRepo constructs a PartyRepo with the given DB handle.
func NewPartyRepo(db *sql.DB) *PartyRepo {
	return &PartyRepo{db: db}
}

// Create inserts a party and populates its ID.
func (r *PartyRepo) Create(ctx context.Context, p *model.Party) error {
	const q = `INSERT INTO parties (title, starts_at, ends_at) VALUES (?,?,?)`
	res, err := r.db.ExecContext(ctx, q, p.Title, p.StartsAt, p.EndsAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// FindByID fetches a single party.
func (r *PartyRepo) FindByID(ctx context.Context, id uint64) (*model.Party, error) {
	const q = `SELECT id, title, starts_at, ends_at FROM parties WHERE id = ?`
	var p model.Party
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Title, &p.StartsAt, &p.EndsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all parties, soonest first.
func (r *PartyRepo) List(ctx context.Context) ([]*model.Party, error) {
	const q = `SELECT id, title, starts_at, ends_at FROM parties ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []*model.Party
	for rows.Next() {
		var p model.Party
		if err := rows.Scan(&p.ID, &p.Title, &p.StartsAt, &p.EndsAt); err != nil {
			return nil, err
		}
		parties = append(parties, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return parties, nil
}
