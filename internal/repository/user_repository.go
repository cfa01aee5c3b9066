package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/MrFastDie/byceps/internal/model"
	"github.com/MrFastDie/byceps/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrEmailExists      = errors.New("email already exists")
	ErrScreenNameExists = errors.New("screen name already exists")
)

// Create inserts a user and returns its ID. Email is normalized to
// lower case; the screen name keeps its casing but must be unique.
func (r *UserRepo) Create(ctx context.Context, email, screenName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	screenName = strings.TrimSpace(screenName)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, screen_name, password_hash, role) VALUES (?,?,?,?)",
		email, screenName, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "screen_name") {
				return 0, ErrScreenNameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,screen_name,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.ScreenName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,screen_name,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Email, &u.ScreenName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByScreenName fetches a user by exact screen name.
func (r *UserRepo) GetByScreenName(ctx context.Context, screenName string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,screen_name,password_hash,role,is_active,created_at,updated_at FROM users WHERE screen_name=? LIMIT 1",
		strings.TrimSpace(screenName)).Scan(&u.ID, &u.Email, &u.ScreenName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
