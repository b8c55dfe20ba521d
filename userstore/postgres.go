// Package userstore provides the PostgreSQL credential store.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"crmauth"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Postgres implements crmauth.UserStore on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ crmauth.UserStore = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the users table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id             UUID PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			name           TEXT NOT NULL,
			password_hash  TEXT NOT NULL,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			role           TEXT NOT NULL DEFAULT 'USER',
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, input crmauth.NewUser) (crmauth.User, error) {
	role := input.Role
	if role == "" {
		role = crmauth.RoleUser
	}

	user := crmauth.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, email_verified, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, $6)
	`, user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role), user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return crmauth.User{}, crmauth.ErrEmailTaken
		}
		return crmauth.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (s *Postgres) GetByEmail(ctx context.Context, email string) (crmauth.User, error) {
	return s.get(ctx, `
		SELECT id, email, name, password_hash, email_verified, role, created_at
		FROM users
		WHERE email = $1
	`, email)
}

func (s *Postgres) GetByID(ctx context.Context, id string) (crmauth.User, error) {
	return s.get(ctx, `
		SELECT id, email, name, password_hash, email_verified, role, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (s *Postgres) get(ctx context.Context, query, arg string) (crmauth.User, error) {
	var (
		user crmauth.User
		role string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.EmailVerified, &role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return crmauth.User{}, crmauth.ErrUserNotFound
		}
		return crmauth.User{}, fmt.Errorf("query user: %w", err)
	}
	user.Role = crmauth.Role(role)
	return user, nil
}

func (s *Postgres) MarkVerified(ctx context.Context, id string) (crmauth.User, error) {
	var (
		user crmauth.User
		role string
	)
	err := s.pool.QueryRow(ctx, `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING id, email, name, password_hash, email_verified, role, created_at
	`, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.EmailVerified, &role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return crmauth.User{}, crmauth.ErrUserNotFound
		}
		return crmauth.User{}, fmt.Errorf("mark user verified: %w", err)
	}
	user.Role = crmauth.Role(role)
	return user, nil
}

func (s *Postgres) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return crmauth.ErrUserNotFound
	}
	return nil
}
