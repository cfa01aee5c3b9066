package repository

import (
	"context"
	"database/sql"

	"github.com/MrFastDie/byceps/internal/model"
)

// Attendee is one confirmed attendee of a party, derived from ticket
// usage.
type Attendee struct {
	UserID     uint64
	ScreenName string
}

// AttendanceRepo answers who attends or attended which party. Current
// attendance is derived from ticket usage; past attendance is kept in
// the archived_attendances table so it survives ticket cleanup after a
// party ends.
type AttendanceRepo struct {
	db *sql.DB
}

// NewAttendanceRepo constructs an AttendanceRepo with the given DB
// handle.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// AttendeesForParty returns the party's attendees: each distinct user
// assigned to a non-revoked ticket, ordered by screen name.
func (r *AttendanceRepo) AttendeesForParty(ctx context.Context, partyID uint64) ([]Attendee, error) {
	const q = `SELECT DISTINCT u.id, u.screen_name
	           FROM tickets t
	           JOIN ticket_categories c ON c.id = t.category_id
	           JOIN users u ON u.id = t.used_by_id
	           WHERE c.party_id = ? AND t.revoked = FALSE
	           ORDER BY u.screen_name`
	rows, err := r.db.QueryContext(ctx, q, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendees []Attendee
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.UserID, &a.ScreenName); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}

// ArchiveAttendance records that the user attended the party. Archiving
// twice is harmless.
func (r *AttendanceRepo) ArchiveAttendance(ctx context.Context, userID, partyID uint64) error {
	const q = `INSERT IGNORE INTO archived_attendances (user_id, party_id) VALUES (?,?)`
	_, err := r.db.ExecContext(ctx, q, userID, partyID)
	return err
}

// AttendedParties returns all parties the user attended or currently
// holds an assigned ticket for, soonest first.
func (r *AttendanceRepo) AttendedParties(ctx context.Context, userID uint64) ([]*model.Party, error) {
	const q = `SELECT p.id, p.title, p.starts_at, p.ends_at
	           FROM parties p
	           JOIN archived_attendances a ON a.party_id = p.id AND a.user_id = ?
	           UNION
	           SELECT p.id, p.title, p.starts_at, p.ends_at
	           FROM parties p
	           JOIN ticket_categories c ON c.party_id = p.id
	           JOIN tickets t ON t.category_id = c.id
	           WHERE t.used_by_id = ? AND t.revoked = FALSE
	           ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, userID, userID)
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
