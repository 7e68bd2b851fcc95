// Package users stores the user directory in PostgreSQL. Email is unique,
// so lookups and sign-in updates are single statements.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
)

const userColumns = `id, email, name, picture, google_id, created_at, last_login, is_active`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.GoogleID, &u.CreatedAt, &u.LastLogin, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail is an exact, case-sensitive match.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// UpsertOnSignIn refreshes name, picture and last login of an existing user
// in one statement. It never creates a user: common.ErrNotFound means the
// email is new. last_login never moves backwards.
func (r *PostgresRepository) UpsertOnSignIn(ctx context.Context, p identity.Payload, now time.Time) (*models.User, error) {
	query :=
		`UPDATE users
		 SET last_login = GREATEST(last_login, $2), name = $3, picture = $4
		 WHERE email = $1
		 RETURNING ` + userColumns + `
		 `

	u, err := scanUser(r.db.QueryRowContext(ctx, query, p.Email, now.UTC(), p.Name, p.Picture))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Create inserts user with a fresh time-ordered ID. A second user with the
// same email yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.LastLogin.IsZero() {
		user.LastLogin = user.CreatedAt
	}

	query :=
		`INSERT INTO users (id, email, name, picture, google_id, created_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id
		 `

	err = r.db.QueryRowContext(ctx, query,
		id.String(), user.Email, user.Name, user.Picture, user.GoogleID, user.CreatedAt, user.LastLogin).Scan(&user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", user.Email, common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.IsActive = true
	return user, nil
}

// List returns every user, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
