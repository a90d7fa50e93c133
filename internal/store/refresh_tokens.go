package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/db"
)

// Refresh token failures. All of them mean the caller has to log in again.
var (
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Only the SHA-256 of a refresh token is stored.
func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	b := make([]byte, 48)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func insertRefreshToken(ctx context.Context, d *db.DB, ex execer, userID string, expiresAt time.Time) (id, raw string, err error) {
	raw, err = newRefreshToken()
	if err != nil {
		return "", "", err
	}
	id = uuid.NewString()
	_, err = ex.ExecContext(ctx, d.Rebind(
		`INSERT INTO refresh_tokens (id, token_hash, user_id, issued_at, expires_at) VALUES (?, ?, ?, ?, ?)`),
		id, hashRefreshToken(raw), userID, time.Now().UTC(), expiresAt.UTC(),
	)
	if err != nil {
		return "", "", fmt.Errorf("storing refresh token: %w", err)
	}
	return id, raw, nil
}

// IssueRefreshToken creates a refresh token for a user and returns its raw
// value, which is shown to the client once.
func IssueRefreshToken(ctx context.Context, d *db.DB, userID string, expiresAt time.Time) (string, error) {
	_, raw, err := insertRefreshToken(ctx, d, d, userID, expiresAt)
	if err != nil {
		return "", err
	}

	// Opportunistically clean up expired tokens.
	_, _ = d.ExecContext(ctx, d.Rebind(
		`DELETE FROM refresh_tokens WHERE expires_at < ?`), time.Now().UTC(),
	)

	return raw, nil
}

// RotateRefreshToken exchanges a refresh token for a new one. The old token
// is revoked and points at its replacement, so it can be used only once.
func RotateRefreshToken(ctx context.Context, d *db.DB, raw string, expiresAt time.Time) (userID, next string, err error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		id        string
		expires   time.Time
		revokedAt *time.Time
	)
	err = tx.QueryRowContext(ctx, d.Rebind(
		`SELECT id, user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ?`),
		hashRefreshToken(raw),
	).Scan(&id, &userID, &expires, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrRefreshTokenInvalid
	}
	if err != nil {
		return "", "", fmt.Errorf("looking up refresh token: %w", err)
	}
	if revokedAt != nil {
		return "", "", ErrRefreshTokenRevoked
	}
	if time.Now().After(expires) {
		return "", "", ErrRefreshTokenExpired
	}

	nextID, next, err := insertRefreshToken(ctx, d, tx, userID, expiresAt)
	if err != nil {
		return "", "", err
	}

	result, err := tx.ExecContext(ctx, d.Rebind(
		`UPDATE refresh_tokens SET revoked_at = ?, replaced_by = ? WHERE id = ? AND revoked_at IS NULL`),
		time.Now().UTC(), nextID, id,
	)
	if err != nil {
		return "", "", fmt.Errorf("revoking refresh token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", "", fmt.Errorf("revoking refresh token: %w", err)
	}
	if n == 0 {
		// Another rotation spent it first.
		return "", "", ErrRefreshTokenRevoked
	}

	if err := tx.Commit(); err != nil {
		return "", "", fmt.Errorf("committing refresh token rotation: %w", err)
	}
	return userID, next, nil
}

// RevokeRefreshToken revokes a single refresh token. Unknown tokens are
// ignored.
func RevokeRefreshToken(ctx context.Context, d *db.DB, raw string) error {
	_, err := d.ExecContext(ctx, d.Rebind(
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`),
		time.Now().UTC(), hashRefreshToken(raw),
	)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every refresh token of a user.
func RevokeUserRefreshTokens(ctx context.Context, d *db.DB, userID string) error {
	_, err := d.ExecContext(ctx, d.Rebind(
		`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`),
		time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("revoking refresh tokens of user: %w", err)
	}
	return nil
}
