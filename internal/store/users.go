package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
)

// ErrUserOwnsItems is returned when deleting a user that still owns items.
var ErrUserOwnsItems = errors.New("user still owns items")

const userColumns = `id, email, first_name, last_name, password_hash, role, created_at, deleted_at`

// CreateUser creates a new user. Emails are stored lowercased.
func CreateUser(ctx context.Context, d *db.DB, email, firstName, lastName, passwordHash, role string) (*model.User, error) {
	id := uuid.NewString()
	_, err := d.ExecContext(ctx, d.Rebind(
		`INSERT INTO users (id, email, first_name, last_name, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, normalizeEmail(email), firstName, lastName, passwordHash, role, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, d, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, d *db.DB, id string) (*model.User, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the active user with the given email.
func GetUserByEmail(ctx context.Context, d *db.DB, email string) (*model.User, error) {
	row := d.QueryRowContext(ctx, d.Rebind(
		`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`),
		normalizeEmail(email),
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users ordered by name.
func ListUsers(ctx context.Context, d *db.DB) ([]model.User, error) {
	rows, err := d.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY last_name, first_name, email`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, d *db.DB) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, d *db.DB, id, passwordHash string) error {
	_, err := d.ExecContext(ctx, d.Rebind(
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`),
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// DeleteUser soft-deletes a user. Fails if the user still owns items.
func DeleteUser(ctx context.Context, d *db.DB, id string) error {
	var count int
	err := d.QueryRowContext(ctx, d.Rebind(
		`SELECT COUNT(*) FROM items WHERE owner_id = ? AND deleted_at IS NULL`), id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking owned items: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete user: %w (%d)", ErrUserOwnsItems, count)
	}

	_, err = d.ExecContext(ctx, d.Rebind(
		`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`),
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func scanUser(s scanner) (*model.User, error) {
	u := &model.User{}
	err := s.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
