package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/assetdesk/internal/api"
	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/importer"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

type backend struct {
	url    string
	token  string
	client *client.Client
	db     *db.DB
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	database := db.NewTestDB(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	_, err := store.CreateUser(context.Background(), database, "admin@example.com", "Ada", "Admin", string(hash), model.RoleAdmin)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(database, "test-secret"))
	t.Cleanup(srv.Close)

	url := srv.URL + "/api"
	session, err := client.New(url).Login(context.Background(), "admin@example.com", "password")
	require.NoError(t, err)
	return &backend{url: url, token: session.Token, client: client.New(url, client.WithToken(session.Token)), db: database}
}

func runCLI(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.String(), errBuf.String(), e
}

// run runs a command against b with its token.
func (b *backend) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, append([]string{"--api-url", b.url, "--token", b.token}, args...)...)
	return out, err
}

func (b *backend) createItem(t *testing.T, name, category, owner string) *model.Item {
	t.Helper()
	item, err := b.client.CreateItem(context.Background(), model.CreateItemRequest{
		Name: name, Category: category, SerialNumber1: "SN-" + name, OwnerID: owner, Location: "GD-0001",
	})
	require.NoError(t, err)
	return item
}

func TestEnsureAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, ensureAdmin(ctx, database, "root@example.com", &out))
	assert.Contains(t, out.String(), "root@example.com")
	assert.Contains(t, out.String(), "Password: ")

	user, err := store.GetUserByEmail(ctx, database, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.RoleAdmin, user.Role)

	out.Reset()
	require.NoError(t, ensureAdmin(ctx, database, "other@example.com", &out))
	assert.Empty(t, out.String())
	n, err := store.CountUsers(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoginCommand(t *testing.T) {
	b := newBackend(t)

	out, _, err := runCLI(t, "--api-url", b.url, "login", "--email", "admin@example.com", "--password", "password")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	_, err = client.New(b.url, client.WithToken(token)).ListItems(context.Background())
	assert.NoError(t, err)
}

func TestLoginCommandReadsPasswordFromStdin(t *testing.T) {
	b := newBackend(t)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("password\n"))
	cmd.SetArgs([]string{"--api-url", b.url, "login", "--email", "admin@example.com"})
	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, strings.TrimSpace(out.String()))
}

func TestLoginCommandWrongPassword(t *testing.T) {
	b := newBackend(t)

	_, _, err := runCLI(t, "--api-url", b.url, "login", "--email", "admin@example.com", "--password", "nope")
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
}

func TestRefreshCommand(t *testing.T) {
	b := newBackend(t)

	out, _, err := runCLI(t, "--api-url", b.url, "login", "--email", "admin@example.com", "--password", "password", "--with-refresh")
	require.NoError(t, err)
	lines := strings.Fields(out)
	require.Len(t, lines, 2)

	out, _, err = runCLI(t, "--api-url", b.url, "refresh", lines[1])
	require.NoError(t, err)
	pair := strings.Fields(out)
	require.Len(t, pair, 2)
	assert.NotEqual(t, lines[1], pair[1])

	_, err = client.New(b.url, client.WithToken(pair[0])).ListItems(context.Background())
	assert.NoError(t, err)

	// The spent refresh token is refused.
	_, _, err = runCLI(t, "--api-url", b.url, "refresh", lines[1])
	require.Error(t, err)
	assert.True(t, client.IsUnauthorized(err))
}

func TestCommandsNeedToken(t *testing.T) {
	_, _, err := runCLI(t, "--api-url", "http://127.0.0.1:1/api", "--token", "", "items", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
}

func TestInvalidConfigRejected(t *testing.T) {
	_, _, err := runCLI(t, "--api-url", "ftp://example.com", "items", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must start with http")
}

func TestItemsList(t *testing.T) {
	b := newBackend(t)
	b.createItem(t, "ThinkPad X1", "Laptop", "admin@example.com")
	b.createItem(t, "Dell U2720Q", "Monitor", "")

	out, err := b.run(t, "items", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ThinkPad X1")
	assert.Contains(t, out, "Dell U2720Q")
	assert.Contains(t, out, "Ada Admin")
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, "2 of 2 items")

	out, err = b.run(t, "items", "list", "--search", "thinkpad")
	require.NoError(t, err)
	assert.Contains(t, out, "ThinkPad X1")
	assert.NotContains(t, out, "Dell U2720Q")
	assert.Contains(t, out, "1 of 2 items")
}

func TestItemsListSorted(t *testing.T) {
	b := newBackend(t)
	b.createItem(t, "Bravo", "Laptop", "")
	b.createItem(t, "alpha", "Laptop", "")
	b.createItem(t, "Charlie", "Laptop", "")

	out, err := b.run(t, "items", "list", "--sort", "name")
	require.NoError(t, err)
	a, br, c := strings.Index(out, "alpha"), strings.Index(out, "Bravo"), strings.Index(out, "Charlie")
	assert.True(t, a < br && br < c, out)

	out, err = b.run(t, "items", "list", "--sort", "name", "--reverse")
	require.NoError(t, err)
	a, br, c = strings.Index(out, "alpha"), strings.Index(out, "Bravo"), strings.Index(out, "Charlie")
	assert.True(t, c < br && br < a, out)
}

func TestItemsListUnknownSortField(t *testing.T) {
	b := newBackend(t)

	_, err := b.run(t, "items", "list", "--sort", "price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort field")
}

func TestItemsListEmpty(t *testing.T) {
	b := newBackend(t)

	out, err := b.run(t, "items", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No items found.")
}

func TestItemsImport(t *testing.T) {
	b := newBackend(t)
	path := filepath.Join(t.TempDir(), "items.csv")
	csv := "name,category,serial_number_1,owner,location\n" +
		"Hub,Dock,D-1,admin@example.com,GD-0001\n" +
		"Broken,Dock,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	out, err := b.run(t, "items", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Import finished: 1 items created, 1 rows had errors")
	assert.Contains(t, out, "row 3: missing serial_number_1")

	items, err := b.client.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Hub", items[0].Name)
}

func TestItemsImportRejectsFileBeforeUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.txt")
	require.NoError(t, os.WriteFile(path, []byte("name\n"), 0o644))

	// The backend URL is unreachable: the check must fail first.
	_, _, err := runCLI(t, "--api-url", "http://127.0.0.1:1/api", "--token", "x", "items", "import", path)
	assert.ErrorIs(t, err, importer.ErrUnsupported)
}

func TestItemsDelete(t *testing.T) {
	b := newBackend(t)
	keep := b.createItem(t, "Keep", "Laptop", "")
	drop := b.createItem(t, "Drop", "Laptop", "")

	out, err := b.run(t, "items", "delete", drop.ID, "missing-id")
	require.Error(t, err)
	assert.Contains(t, out, "deleted "+drop.ID)
	assert.Contains(t, err.Error(), "deleting missing-id")

	items, err := b.client.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)
}

func TestUsersCreateAndList(t *testing.T) {
	b := newBackend(t)

	out, err := b.run(t, "users", "create", "--email", "jane.doe@example.com", "--first-name", "Jane", "--last-name", "Doe", "--role", "manager")
	require.NoError(t, err)
	assert.Contains(t, out, "created jane.doe@example.com (manager)")
	assert.Contains(t, out, "password: ")

	out, err = b.run(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "JD")
	assert.Contains(t, out, "admin@example.com")
}

func TestUsersCreateInvalidRole(t *testing.T) {
	b := newBackend(t)

	_, err := b.run(t, "users", "create", "--email", "x@example.com", "--role", "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestSeedAndFlush(t *testing.T) {
	b := newBackend(t)

	out, err := b.run(t, "seed", "--users", "3", "--items", "5", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 3 users and 5 items")

	items, err := b.client.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
	for _, item := range items {
		assert.NotNil(t, item.OwnerID)
		assert.Regexp(t, `^[A-Z]{3}-[0-9]{3}-[A-Z0-9]{3}$`, item.SerialNumber1)
	}

	_, err = b.run(t, "seed", "--flush")
	require.NoError(t, err)

	items, err = b.client.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	users, err := b.client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)
}

func TestGeneratorIsDeterministic(t *testing.T) {
	owners := []model.User{{Email: "a@example.com"}, {Email: "b@example.com"}}
	g1, g2 := newGenerator(7), newGenerator(7)
	for range 20 {
		assert.Equal(t, g1.user(), g2.user())
		assert.Equal(t, g1.item(owners), g2.item(owners))
	}
	assert.Regexp(t, `^[A-Z]{2}-[0-9]{4}$`, newGenerator(1).location())
}

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, cleanup, err := newLogger(&stdout, &stderr, "", levelFromString(t, "warn"))
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	logger.Error("failed")

	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shown")
	assert.NotContains(t, stdout.String(), "failed")
	assert.Contains(t, stderr.String(), "failed")
}

func TestLoggerTeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetdesk.log")
	var stdout, stderr bytes.Buffer
	logger, cleanup, err := newLogger(&stdout, &stderr, path, levelFromString(t, "info"))
	require.NoError(t, err)

	logger.Info("to file")
	logger.Error("also to file")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, string(data), "also to file")
}

func levelFromString(t *testing.T, s string) slog.Level {
	t.Helper()
	var l slog.Level
	require.NoError(t, l.UnmarshalText([]byte(s)))
	return l
}
