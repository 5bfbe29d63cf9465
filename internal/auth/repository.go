package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access for user records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser persists a new user record. Duplicates are mapped to a
// field-specific error by the violated constraint's name.
func (r *Repository) CreateUser(ctx context.Context, user User) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO users (username, username_lc, email, email_lc, password_hash)
VALUES ($1, lower($1), $2, lower($2), $3)
RETURNING id, username, email, password_hash, created_at;`

	row := r.pool.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash)

	var stored User
	if err := row.Scan(&stored.ID, &stored.Username, &stored.Email, &stored.PasswordHash, &stored.CreatedAt); err != nil {
		if dupErr := translateUniqueViolation(err); dupErr != nil {
			return User{}, dupErr
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return stored, nil
}

// FindByUsername fetches a user by lowercased username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, `
SELECT id, username, email, password_hash, created_at
FROM users
WHERE username_lc = lower($1);`, username)
}

// FindByEmail fetches a user by lowercased email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, `
SELECT id, username, email, password_hash, created_at
FROM users
WHERE email_lc = lower($1);`, email)
}

func (r *Repository) findOne(ctx context.Context, query, arg string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	return user, nil
}

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "uniq_email_lc":
		return ErrEmailAlreadyExists
	case "uniq_username_lc":
		return ErrUsernameAlreadyExists
	default:
		return ErrUserAlreadyExists
	}
}
