package model

import "time"

// User is an account that can own, manage, or use tickets. Role is
// either ATTENDEE or ORGA; organizers may administer tickets for any
// party.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	ScreenName   string    // users.screen_name
	PasswordHash string    // users.password_hash
	Role         string    // users.role: ATTENDEE | ORGA
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
