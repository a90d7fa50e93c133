package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/assetdesk/internal/api"
	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

// newBackend starts the real API on an in-memory database and returns a
// client logged in as an admin.
func newBackend(t *testing.T) *Client {
	t.Helper()
	database := db.NewTestDB(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	_, err := store.CreateUser(context.Background(), database, "admin@example.com", "Ada", "Admin", string(hash), model.RoleAdmin)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(database, "test-secret"))
	t.Cleanup(srv.Close)

	c := New(srv.URL + "/api")
	session, err := c.Login(context.Background(), "admin@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", session.User.Email)
	return c.Authorized(session.Token)
}

func TestItemServices(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()

	owner, err := c.CreateUser(ctx, model.CreateUserRequest{Email: "jane.doe@example.com", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.NotEmpty(t, owner.RawPassword)

	created, err := c.CreateItem(ctx, model.CreateItemRequest{
		Name: "ThinkPad", Category: "Laptop", SerialNumber1: "SN-1", OwnerID: owner.ID, Location: "HQ",
	})
	require.NoError(t, err)
	assert.Nil(t, created.SerialNumber2)

	got, err := c.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad", got.Name)

	name := "ThinkPad X1"
	updated, err := c.UpdateItem(ctx, created.ID, model.UpdateItemRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "ThinkPad X1", updated.Name)
	assert.Equal(t, 2, updated.Version)

	items, err := c.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, c.DeleteItem(ctx, created.ID))
	_, err = c.GetItem(ctx, created.ID)
	assert.True(t, IsNotFound(err))
}

func TestImportService(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()

	csv := "name,category,serial_number_1\nHub,Dock,D-1\nBad,Dock,\n"
	result, err := c.ImportItems(ctx, "items.csv", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, result.Created, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
}

func TestUserServices(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()

	created, err := c.CreateUser(ctx, model.CreateUserRequest{Email: "john.smith@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Empty(t, created.RawPassword)

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	got, err := c.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "john.smith@example.com", got.Email)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx, ""))
	_, err := c.ListItems(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestRefreshRotatesSession(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()
	anon := New(c.BaseURL())

	first, err := anon.Login(ctx, "admin@example.com", "password")
	require.NoError(t, err)
	require.NotEmpty(t, first.RefreshToken)

	second, err := anon.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, "admin@example.com", second.User.Email)

	_, err = anon.Refresh(ctx, first.RefreshToken)
	assert.True(t, IsUnauthorized(err))

	refreshed := anon.Authorized(second.Token)
	_, err = refreshed.ListItems(ctx)
	require.NoError(t, err)

	require.NoError(t, refreshed.Logout(ctx, second.RefreshToken))
	_, err = anon.Refresh(ctx, second.RefreshToken)
	assert.True(t, IsUnauthorized(err))
}

func TestChangePassword(t *testing.T) {
	c := newBackend(t)
	ctx := context.Background()

	err := c.ChangePassword(ctx, "wrong-password", "new-password")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, "current password is incorrect", Message(err))

	require.NoError(t, c.ChangePassword(ctx, "password", "new-password"))
	_, err = New(c.BaseURL()).Login(ctx, "admin@example.com", "new-password")
	assert.NoError(t, err)
}
