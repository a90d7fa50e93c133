package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
)

func TestRotateRefreshToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "jane@example.com", "Jane", "Roe", "hash", model.RoleUser)

	first, err := IssueRefreshToken(ctx, database, user.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	userID, second, err := RotateRefreshToken(ctx, database, first, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RotateRefreshToken: %v", err)
	}
	if userID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, userID)
	}
	if second == "" || second == first {
		t.Errorf("expected a new refresh token, got %q", second)
	}

	// The rotated token is spent.
	if _, _, err := RotateRefreshToken(ctx, database, first, time.Now().Add(time.Hour)); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked for a reused token, got %v", err)
	}

	// The replacement still works.
	if _, _, err := RotateRefreshToken(ctx, database, second, time.Now().Add(time.Hour)); err != nil {
		t.Errorf("rotating the replacement: %v", err)
	}
}

func TestRotateRefreshTokenFailures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "jane@example.com", "Jane", "Roe", "hash", model.RoleUser)

	if _, _, err := RotateRefreshToken(ctx, database, "no-such-token", time.Now().Add(time.Hour)); !errors.Is(err, ErrRefreshTokenInvalid) {
		t.Errorf("expected ErrRefreshTokenInvalid, got %v", err)
	}

	expired := insertExpired(t, database, user.ID)
	if _, _, err := RotateRefreshToken(ctx, database, expired, time.Now().Add(time.Hour)); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Errorf("expected ErrRefreshTokenExpired, got %v", err)
	}

	revoked, _ := IssueRefreshToken(ctx, database, user.ID, time.Now().Add(time.Hour))
	if err := RevokeRefreshToken(ctx, database, revoked); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if _, _, err := RotateRefreshToken(ctx, database, revoked, time.Now().Add(time.Hour)); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
}

func TestRevokeUserRefreshTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	jane, _ := CreateUser(ctx, database, "jane@example.com", "Jane", "Roe", "hash", model.RoleUser)
	john, _ := CreateUser(ctx, database, "john@example.com", "John", "Doe", "hash", model.RoleUser)

	janeA, _ := IssueRefreshToken(ctx, database, jane.ID, time.Now().Add(time.Hour))
	janeB, _ := IssueRefreshToken(ctx, database, jane.ID, time.Now().Add(time.Hour))
	johnA, _ := IssueRefreshToken(ctx, database, john.ID, time.Now().Add(time.Hour))

	if err := RevokeUserRefreshTokens(ctx, database, jane.ID); err != nil {
		t.Fatalf("RevokeUserRefreshTokens: %v", err)
	}

	for _, tok := range []string{janeA, janeB} {
		if _, _, err := RotateRefreshToken(ctx, database, tok, time.Now().Add(time.Hour)); !errors.Is(err, ErrRefreshTokenRevoked) {
			t.Errorf("expected jane's token to be revoked, got %v", err)
		}
	}
	if _, _, err := RotateRefreshToken(ctx, database, johnA, time.Now().Add(time.Hour)); err != nil {
		t.Errorf("expected john's token to survive, got %v", err)
	}
}

// insertExpired stores a token that expired a minute ago. IssueRefreshToken
// would clean it up right away.
func insertExpired(t *testing.T, d *db.DB, userID string) string {
	t.Helper()
	_, raw, err := insertRefreshToken(context.Background(), d, d, userID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("insertRefreshToken: %v", err)
	}
	return raw
}
