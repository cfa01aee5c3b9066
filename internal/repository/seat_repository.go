package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrFastDie/byceps/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides access to a party's seating plan. The ticket core
// only resolves seats; layout editing lives elsewhere.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// Create inserts a single seat. On success the seat's ID is populated.
func (r *SeatRepo) Create(ctx context.Context, s *model.Seat) error {
	const q = `INSERT INTO seats (party_id, label, coord_x, coord_y) VALUES (?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, s.PartyID, s.Label, s.CoordX, s.CoordY)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (party_id, label, coord_x, coord_y) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?)"
		args = append(args, seat.PartyID, seat.Label, seat.CoordX, seat.CoordY)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// FindByID fetches a single seat.
func (r *SeatRepo) FindByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, party_id, label, coord_x, coord_y FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.PartyID, &s.Label, &s.CoordX, &s.CoordY)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByIDForParty fetches a seat and verifies it belongs to the party.
func (r *SeatRepo) FindByIDForParty(ctx context.Context, id, partyID uint64) (*model.Seat, error) {
	const q = `SELECT id, party_id, label, coord_x, coord_y FROM seats WHERE id = ? AND party_id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id, partyID).Scan(&s.ID, &s.PartyID, &s.Label, &s.CoordX, &s.CoordY)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListForParty returns the party's seats ordered by position.
func (r *SeatRepo) ListForParty(ctx context.Context, partyID uint64) ([]*model.Seat, error) {
	const q = `SELECT id, party_id, label, coord_x, coord_y
	           FROM seats WHERE party_id = ?
	           ORDER BY coord_y, coord_x`
	rows, err := r.db.QueryContext(ctx, q, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []*model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.PartyID, &s.Label, &s.CoordX, &s.CoordY); err != nil {
			return nil, err
		}
		seats = append(seats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
